// Package config handles configuration loading and saving.
package config

import (
	"time"
)

// Config is the root configuration structure.
type Config struct {
	Queue   QueueConfig   `yaml:"queue"`
	Idle    IdleConfig    `yaml:"idle"`
	Logging LoggingConfig `yaml:"logging"`
}

// QueueConfig contains conveyor belt defaults.
type QueueConfig struct {
	Speed string `yaml:"speed"` // "immediate", "150ms" or bare milliseconds
}

// IdleConfig contains idle tracking defaults.
type IdleConfig struct {
	Delay  time.Duration `yaml:"delay"`
	Events string        `yaml:"events"` // space-separated activity event names
}

// LoggingConfig contains logger settings.
type LoggingConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Level   string `yaml:"level,omitempty"`
	Stdout  bool   `yaml:"stdout,omitempty"`
	File    string `yaml:"file,omitempty"`
}

// LogEnabled reports whether logging is on, defaulting to true.
func (l LoggingConfig) LogEnabled() bool {
	if l.Enabled == nil {
		return true
	}
	return *l.Enabled
}
