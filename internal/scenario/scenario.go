// Package scenario replays scripted activity against a conveyor belt and an
// idle tracker on a virtual clock.
package scenario

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linanwx/conveyor/conveyor"
)

// Scenario is the YAML document accepted by Load and Parse.
type Scenario struct {
	Document string        `yaml:"document,omitempty"`
	Idle     IdleSpec      `yaml:"idle,omitempty"`
	Queue    QueueSpec     `yaml:"queue,omitempty"`
	Until    time.Duration `yaml:"until,omitempty"`
	Steps    []Step        `yaml:"steps"`
}

// IdleSpec overrides the configured idle settings.
type IdleSpec struct {
	Delay  time.Duration `yaml:"delay,omitempty"`
	Events string        `yaml:"events,omitempty"`
}

// QueueSpec overrides the configured belt speed.
type QueueSpec struct {
	Speed *conveyor.Speed `yaml:"speed,omitempty"`
}

// Step runs its operations at offset At from the start of the replay.
// Operations within one step apply in field order.
type Step struct {
	At time.Duration `yaml:"at"`

	Watch   string `yaml:"watch,omitempty"`
	Start   string `yaml:"start,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Emit    string `yaml:"emit,omitempty"`
	Cancel  string `yaml:"cancel,omitempty"`
	Done    string `yaml:"done,omitempty"`
	Clear   string `yaml:"clear,omitempty"`

	Stop     bool            `yaml:"stop,omitempty"`
	Add      []string        `yaml:"add,omitempty"`
	Decimate *float64        `yaml:"decimate,omitempty"`
	Burn     *int            `yaml:"burn,omitempty"` // negative burns everything
	Flush    *int            `yaml:"flush,omitempty"`
	Resume   bool            `yaml:"resume,omitempty"`
	Speed    *conveyor.Speed `yaml:"speed,omitempty"` // with resume, restart at this speed
}

func (s Step) empty() bool {
	return s.Watch == "" && s.Start == "" && s.Emit == "" && s.Cancel == "" &&
		s.Done == "" && s.Clear == "" && len(s.Add) == 0 && s.Decimate == nil &&
		s.Burn == nil && s.Flush == nil && !s.Stop && !s.Resume
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := checkDurations(&root); err != nil {
		return nil, err
	}
	var sc Scenario
	if root.Kind != 0 {
		if err := root.Decode(&sc); err != nil {
			return nil, fmt.Errorf("parse scenario: %w", err)
		}
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// durationKeys are decoded as time.Duration, where yaml.v3 reads a bare
// integer as nanoseconds.
var durationKeys = map[string]bool{"at": true, "until": true, "delay": true}

// checkDurations rejects unit-less non-zero integers under durationKeys.
func checkDurations(n *yaml.Node) error {
	if n.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(n.Content); i += 2 {
			key, val := n.Content[i], n.Content[i+1]
			if durationKeys[key.Value] && val.Kind == yaml.ScalarNode && val.Tag == "!!int" && val.Value != "0" {
				return fmt.Errorf("line %d: %s: %s needs a unit, e.g. %sms", val.Line, key.Value, val.Value, val.Value)
			}
		}
	}
	for _, c := range n.Content {
		if err := checkDurations(c); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks step ordering and required fields.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario has no steps")
	}
	var prev time.Duration
	for i, step := range sc.Steps {
		if step.At < 0 {
			return fmt.Errorf("step %d: negative offset %s", i+1, step.At)
		}
		if step.At < prev {
			return fmt.Errorf("step %d: offset %s is before previous step at %s", i+1, step.At, prev)
		}
		prev = step.At
		if step.empty() {
			return fmt.Errorf("step %d: no operation", i+1)
		}
		if step.Emit != "" && strings.TrimSpace(step.Subject) == "" {
			return fmt.Errorf("step %d: emit %q needs a subject", i+1, step.Emit)
		}
		if step.Speed != nil && !step.Resume {
			return fmt.Errorf("step %d: speed is only valid with resume", i+1)
		}
	}
	if sc.Until > 0 && sc.Until < prev {
		return fmt.Errorf("until %s is before the last step at %s", sc.Until, prev)
	}
	return nil
}
