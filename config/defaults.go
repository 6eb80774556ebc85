package config

import (
	"path/filepath"
	"strings"

	"github.com/linanwx/conveyor/internal/runtimecfg"
)

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Queue: QueueConfig{
			Speed: runtimecfg.QueueDefaultSpeed,
		},
		Idle: IdleConfig{
			Delay:  runtimecfg.IdleDefaultDelay,
			Events: runtimecfg.IdleDefaultEvents,
		},
		Logging: defaultLoggingConfig(),
	}
}

func defaultLoggingConfig() LoggingConfig {
	enabled := true
	return LoggingConfig{
		Enabled: &enabled,
		Level:   "info",
		Stdout:  false,
		File:    filepath.Join("logs", runtimecfg.LogFileName),
	}
}

func (c *Config) applyDefaults() {
	c.Queue.Speed = strings.TrimSpace(c.Queue.Speed)
	if c.Queue.Speed == "" {
		c.Queue.Speed = runtimecfg.QueueDefaultSpeed
	}
	if c.Idle.Delay <= 0 {
		c.Idle.Delay = runtimecfg.IdleDefaultDelay
	}
	if strings.TrimSpace(c.Idle.Events) == "" {
		c.Idle.Events = runtimecfg.IdleDefaultEvents
	}

	def := defaultLoggingConfig()
	if c.Logging == (LoggingConfig{}) {
		c.Logging = def
		return
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Level
	}
	if !c.Logging.Stdout && c.Logging.File == "" {
		c.Logging.File = def.File
	}
	if c.Logging.Enabled == nil {
		c.Logging.Enabled = def.Enabled
	}
}
