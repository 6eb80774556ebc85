// Package cmd provides CLI commands.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/linanwx/conveyor/config"
	"github.com/linanwx/conveyor/logger"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	logLevelOverride string
	configDirFlag    string
)

// rootCmd is the root command.
var rootCmd = &cobra.Command{
	Use:   "conveyor",
	Short: "conveyor - throttled action queues and idle detection",
	Long: `conveyor drives two UI helpers on a host timer loop:

  - a conveyor belt that drains queued actions immediately or one per tick
  - an idle tracker that fires "idle" after a quiet period on a subject

Use "conveyor replay" to run a scripted scenario on a virtual clock.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level for this run (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "", "Config directory (default ~/.conveyor)")
	rootCmd.PersistentPreRunE = setupRuntime
}

// setupRuntime applies --config-dir and initializes the logger from config.
func setupRuntime(cmd *cobra.Command, _ []string) error {
	if configDirFlag != "" {
		config.SetConfigDir(configDirFlag)
	}
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}

	level := strings.ToLower(strings.TrimSpace(logLevelOverride))
	switch level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %q (use debug, info, warn, error)", logLevelOverride)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if level != "" {
		cfg.Logging.Level = level
	}

	logCfg := logger.Config{
		Enabled: cfg.Logging.LogEnabled(),
		Level:   cfg.Logging.Level,
		Stdout:  cfg.Logging.Stdout,
		File:    cfg.Logging.File,
	}
	if err := logger.Init(logCfg, configDir); err != nil {
		return fmt.Errorf("logger init error: %w", err)
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
