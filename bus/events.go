// Package bus provides subjects that emit named events to structured
// subscriptions.
package bus

import (
	"strings"
	"time"
)

// Common event names.
const (
	EventIdle  = "idle"
	EventFocus = "focus"
	EventBlur  = "blur"
)

// Event is delivered to handlers by Emit.
type Event struct {
	Type      string
	Subject   string // name of the emitting subject
	Timestamp time.Time
	Data      any
}

// SplitNames splits a space-separated event name list, dropping blanks and
// duplicates while keeping first-seen order.
func SplitNames(names string) []string {
	fields := strings.Fields(names)
	out := fields[:0]
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
