package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/linanwx/conveyor/config"
	"github.com/linanwx/conveyor/conveyor"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate config.yaml with default settings",
	Long: `Generate config.yaml in the config directory. An existing file is never
overwritten.

Examples:
  conveyor init
  conveyor init --speed immediate --idle-delay 2s`,
	RunE: runInit,
}

var (
	initSpeed     string
	initIdleDelay time.Duration
	initEvents    string
)

func init() {
	initCmd.Flags().StringVar(&initSpeed, "speed", "", "Default belt speed (immediate, 150ms or milliseconds)")
	initCmd.Flags().DurationVar(&initIdleDelay, "idle-delay", 0, "Default idle delay")
	initCmd.Flags().StringVar(&initEvents, "events", "", "Default space-separated activity events")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	cfg := config.DefaultConfig()
	if initSpeed != "" {
		speed, err := conveyor.ParseSpeed(initSpeed)
		if err != nil {
			return err
		}
		cfg.Queue.Speed = speed.String()
	}
	if initIdleDelay > 0 {
		cfg.Idle.Delay = initIdleDelay
	}
	if initEvents != "" {
		cfg.Idle.Events = initEvents
	}

	configPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("Config already exists, skipping:", configPath)
		return nil
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println("Config created:", configPath)
	return nil
}
