package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linanwx/conveyor/conveyor"
	"github.com/linanwx/conveyor/internal/scenario"
	"github.com/linanwx/conveyor/thinking"
)

var replayCmd = &cobra.Command{
	Use:   "replay <scenario.yaml>",
	Short: "Replay a scripted scenario on a virtual clock",
	Long: `Replay a YAML scenario against a conveyor belt and an idle tracker.
Time is virtual, so the replay finishes instantly and is deterministic.
Settings the scenario leaves out come from config.yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

var replayHTML bool

func init() {
	replayCmd.Flags().BoolVar(&replayHTML, "html", false, "Print the final document after the trace")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	speed, err := conveyor.ParseSpeed(cfg.Queue.Speed)
	if err != nil {
		return fmt.Errorf("config queue.speed: %w", err)
	}

	sc, err := scenario.Load(args[0])
	if err != nil {
		return err
	}
	res, err := scenario.Run(cmd.Context(), sc, scenario.Defaults{
		Idle: thinking.Config{
			Delay:  cfg.Idle.Delay,
			Events: cfg.Idle.Events,
		},
		Speed: speed,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, e := range res.Trace {
		fmt.Fprintln(out, e.String())
	}
	fmt.Fprintf(out, "\nelapsed %s, %d queued\n", res.Elapsed, res.Remaining)
	if replayHTML && res.HTML != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, res.HTML)
	}
	return nil
}
