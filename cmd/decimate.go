package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linanwx/conveyor/conveyor"
)

var decimateCmd = &cobra.Command{
	Use:   "decimate",
	Short: "Show which queue slots decimation turns into no-ops",
	Long: `Print the decimation mask for a queue of the given length. "x" marks a slot
rewritten to a no-op, "." a slot that keeps its action. The last slot is
always kept.`,
	RunE: runDecimate,
}

var (
	decimateLen    int
	decimateFactor float64
)

func init() {
	decimateCmd.Flags().IntVar(&decimateLen, "len", 10, "Queue length")
	decimateCmd.Flags().Float64Var(&decimateFactor, "factor", 0.5, "Fraction of slots to drop, clamped to [0, 1]")
	rootCmd.AddCommand(decimateCmd)
}

func runDecimate(cmd *cobra.Command, _ []string) error {
	if decimateLen < 0 {
		return fmt.Errorf("--len must not be negative")
	}
	mask := conveyor.DecimateMask(decimateLen, decimateFactor)
	fmt.Fprintf(cmd.OutOrStdout(), "%s  (%d of %d dropped)\n", renderMask(mask), countMarked(mask), decimateLen)
	return nil
}

func renderMask(mask []bool) string {
	var sb strings.Builder
	for _, hit := range mask {
		if hit {
			sb.WriteByte('x')
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

func countMarked(mask []bool) int {
	n := 0
	for _, hit := range mask {
		if hit {
			n++
		}
	}
	return n
}
