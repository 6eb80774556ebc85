package conveyor

import (
	"math"

	"github.com/linanwx/conveyor/logger"
)

// Decimate turns roughly factor of the queued slots into no-ops. The factor
// is clamped to [0, 1]. The most recently added slot is never touched and
// the queue keeps its length. It returns the number of slots rewritten.
func (b *Belt) Decimate(factor float64) int {
	mask := DecimateMask(len(b.queue), factor)
	marked := 0
	for i, hit := range mask {
		if hit {
			b.queue[i] = task{fn: nop, decimated: true}
			marked++
		}
	}
	if marked > 0 {
		logger.Debug("conveyor decimated", "factor", factor, "marked", marked, "queued", len(b.queue))
	}
	return marked
}

// DecimateMask reports which of n slots Decimate(factor) would rewrite.
//
// With k = round(n*factor) it samples every stride-th slot, stride being
// n/k, wrapping around the queue. A full lap that marks nothing shrinks the
// stride, so the scan always reaches k marks. The last slot is protected,
// which caps k at n-1.
func DecimateMask(n int, factor float64) []bool {
	if n <= 0 {
		return nil
	}
	mask := make([]bool, n)
	if math.IsNaN(factor) || factor <= 0 || n <= 1 {
		return mask
	}
	if factor > 1 {
		factor = 1
	}

	k := int(math.Round(float64(n) * factor))
	if k > n-1 {
		k = n - 1
	}
	if k == 0 {
		return mask
	}

	protected := n - 1
	stride := n / k
	pos := stride - 1
	count := 0
	progressed := false
	for count < k {
		if pos != protected && !mask[pos] {
			mask[pos] = true
			count++
			progressed = true
		}
		pos += stride
		if pos >= n {
			pos -= n
			if !progressed && stride > 1 {
				stride--
			}
			progressed = false
		}
	}
	return mask
}
