package bus

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/linanwx/conveyor/logger"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event *Event)

// Subscription represents one On call. It is the handle used to remove
// exactly that registration, leaving unrelated handlers on the same event
// names alone.
type Subscription struct {
	ID      string
	Names   []string
	Handler Handler

	emitter *Emitter
}

// Emitter is a subject that handlers subscribe to.
type Emitter struct {
	name  string
	clock clockwork.Clock

	mu         sync.RWMutex
	subs       []*Subscription
	subCounter int64
}

// NewEmitter creates a subject called name.
func NewEmitter(name string) *Emitter {
	return &Emitter{
		name:  name,
		clock: clockwork.NewRealClock(),
	}
}

// Name returns the subject name.
func (e *Emitter) Name() string {
	return e.name
}

// SetClock sets the clock used to timestamp events.
func (e *Emitter) SetClock(clock clockwork.Clock) {
	if clock == nil {
		return
	}
	e.mu.Lock()
	e.clock = clock
	e.mu.Unlock()
}

// On registers h for every name in the space-separated list. It returns nil
// if the list is empty or h is nil.
func (e *Emitter) On(names string, h Handler) *Subscription {
	list := SplitNames(names)
	if len(list) == 0 || h == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.subCounter++
	sub := &Subscription{
		ID:      generateSubID(e.subCounter),
		Names:   list,
		Handler: h,
		emitter: e,
	}
	e.subs = append(e.subs, sub)

	logger.Debug("subscription added", "subject", e.name, "id", sub.ID, "events", list)
	return sub
}

// Off removes sub. Nil, foreign or already removed subscriptions are ignored.
func (e *Emitter) Off(sub *Subscription) {
	if sub == nil || sub.emitter != e {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	idx := slices.Index(e.subs, sub)
	if idx < 0 {
		return
	}
	e.subs = slices.Delete(e.subs, idx, idx+1)
	logger.Debug("subscription removed", "subject", e.name, "id", sub.ID)
}

// Emit synchronously calls every handler subscribed to name, in registration
// order. Handlers added or removed during the call take effect on the next
// Emit. Panics raised by handlers propagate to the caller.
func (e *Emitter) Emit(ctx context.Context, name string, data any) int {
	e.mu.RLock()
	matched := make([]*Subscription, 0, len(e.subs))
	for _, sub := range e.subs {
		if sub.matches(name) {
			matched = append(matched, sub)
		}
	}
	now := e.clock.Now()
	e.mu.RUnlock()

	if ctx == nil {
		ctx = context.Background()
	}
	event := &Event{
		Type:      name,
		Subject:   e.name,
		Timestamp: now,
		Data:      data,
	}
	for _, sub := range matched {
		sub.Handler(ctx, event)
	}
	return len(matched)
}

// Count returns the number of subscriptions listening to name.
func (e *Emitter) Count(name string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := 0
	for _, sub := range e.subs {
		if sub.matches(name) {
			n++
		}
	}
	return n
}

func (s *Subscription) matches(name string) bool {
	return slices.Contains(s.Names, name)
}

// generateSubID generates a subscription ID.
func generateSubID(counter int64) string {
	return fmt.Sprintf("sub-%d", counter)
}
