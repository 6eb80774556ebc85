package conveyor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Speed is either Immediate or a drain interval.
type Speed struct {
	interval time.Duration
}

// Immediate drains the belt synchronously on every Add.
var Immediate = Speed{}

// Every drains one action per interval. Non-positive intervals mean Immediate.
func Every(d time.Duration) Speed {
	if d <= 0 {
		return Immediate
	}
	return Speed{interval: d}
}

// IsImmediate reports whether s is the Immediate sentinel.
func (s Speed) IsImmediate() bool {
	return s.interval <= 0
}

// Interval returns the drain interval, zero for Immediate.
func (s Speed) Interval() time.Duration {
	return s.interval
}

func (s Speed) String() string {
	if s.IsImmediate() {
		return "immediate"
	}
	return s.interval.String()
}

// ParseSpeed accepts "immediate", a Go duration ("150ms") or a bare integer
// number of milliseconds.
func ParseSpeed(s string) (Speed, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "immediate" {
		return Immediate, nil
	}
	if ms, err := strconv.Atoi(v); err == nil {
		if ms <= 0 {
			return Speed{}, fmt.Errorf("invalid speed %q: must be positive", s)
		}
		return Every(time.Duration(ms) * time.Millisecond), nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return Speed{}, fmt.Errorf("invalid speed %q: %w", s, err)
	}
	if d <= 0 {
		return Speed{}, fmt.Errorf("invalid speed %q: must be positive", s)
	}
	return Every(d), nil
}

// UnmarshalYAML decodes a speed from a scalar node.
func (s *Speed) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: speed must be a scalar", value.Line)
	}
	parsed, err := ParseSpeed(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*s = parsed
	return nil
}

// MarshalYAML encodes the speed as its string form.
func (s Speed) MarshalYAML() (any, error) {
	return s.String(), nil
}
