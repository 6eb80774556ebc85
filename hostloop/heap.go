package hostloop

import (
	"container/heap"
	"time"
)

type entry struct {
	id    Handle
	when  time.Time
	every time.Duration
	seq   uint64
	fn    func()
}

// timerHeap orders entries by deadline, then by scheduling order.
type timerHeap []*entry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) {
	*h = append(*h, x.(*entry))
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}

func heapPush(h *timerHeap, e *entry) {
	heap.Push(h, e)
}

func heapPop(h *timerHeap) *entry {
	return heap.Pop(h).(*entry)
}

func heapInit(h *timerHeap) {
	heap.Init(h)
}
