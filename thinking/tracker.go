// Package thinking detects when a subject goes quiet: after the configured
// delay passes with no qualifying activity event, the subject emits "idle".
//
// A Tracker is not safe for concurrent use; drive it from the goroutine that
// runs its scheduler's callbacks.
package thinking

import (
	"context"
	"time"

	"github.com/linanwx/conveyor/bus"
	"github.com/linanwx/conveyor/hostloop"
	"github.com/linanwx/conveyor/internal/runtimecfg"
	"github.com/linanwx/conveyor/logger"
)

// State is the idle state of one subject.
type State int

const (
	Inactive State = iota
	Active
	Idle
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Idle:
		return "idle"
	default:
		return "inactive"
	}
}

// Config controls idle detection for one subject.
type Config struct {
	Delay  time.Duration
	Events string // space-separated activity event names
}

// DefaultConfig returns the built-in delay and activity events.
func DefaultConfig() Config {
	return Config{
		Delay:  runtimecfg.IdleDefaultDelay,
		Events: runtimecfg.IdleDefaultEvents,
	}
}

func (c Config) withDefaults() Config {
	if c.Delay <= 0 {
		c.Delay = runtimecfg.IdleDefaultDelay
	}
	return c
}

// Subject is anything that emits named events, such as *bus.Emitter.
// Subscriptions returned by On are removed through the tracker's groups, so
// they must come from a *bus.Emitter.
type Subject interface {
	Name() string
	On(names string, h bus.Handler) *bus.Subscription
	Emit(ctx context.Context, name string, data any) int
}

// IdleData is attached to the "idle" event.
type IdleData struct {
	Quiet time.Duration // time since the last activity
}

// TransitionFunc observes state changes.
type TransitionFunc func(subject Subject, from, to State)

type session struct {
	subject     Subject
	cfg         Config
	state       State
	lastReset   time.Time
	outstanding map[hostloop.Handle]struct{}

	activity bus.Group
	idle     bus.Group
	watch    bus.Group
}

// Tracker owns idle sessions for any number of subjects.
type Tracker struct {
	sched     hostloop.Scheduler
	sessions  map[Subject]*session
	observers []TransitionFunc
}

// NewTracker creates a tracker that schedules idle fires on sched.
func NewTracker(sched hostloop.Scheduler) *Tracker {
	return &Tracker{
		sched:    sched,
		sessions: make(map[Subject]*session),
	}
}

// Observe registers fn to be called on every state change.
func (t *Tracker) Observe(fn TransitionFunc) {
	if fn != nil {
		t.observers = append(t.observers, fn)
	}
}

// Start subscribes to cfg.Events on subject and begins the idle countdown.
// Calling it again adds another set of activity listeners.
func (t *Tracker) Start(subject Subject, cfg Config) {
	s := t.session(subject)
	s.cfg = cfg.withDefaults()
	s.activity.Add(subject.On(s.cfg.Events, func(context.Context, *bus.Event) {
		t.reset(s)
	}))
	logger.Debug("idle tracking started", "subject", subject.Name(), "delay", s.cfg.Delay, "events", s.cfg.Events)
	t.reset(s)
}

// Reset records activity on subject as if a qualifying event had fired.
// Untracked subjects are ignored.
func (t *Tracker) Reset(subject Subject) {
	if s, ok := t.sessions[subject]; ok && s.activity.Len() > 0 {
		t.reset(s)
	}
}

func (t *Tracker) reset(s *session) {
	t.cancelTimers(s)
	s.lastReset = t.sched.Now()

	var h hostloop.Handle
	h = t.sched.After(s.cfg.Delay, func() { t.fire(s, h) })
	s.outstanding[h] = struct{}{}

	t.transition(s, Active)
}

func (t *Tracker) fire(s *session, h hostloop.Handle) {
	if _, ok := s.outstanding[h]; !ok {
		return
	}
	delete(s.outstanding, h)

	quiet := t.sched.Now().Sub(s.lastReset)
	t.transition(s, Idle)
	logger.Debug("idle fired", "subject", s.subject.Name(), "quiet", quiet)
	s.subject.Emit(context.Background(), bus.EventIdle, IdleData{Quiet: quiet})
}

// Cancel drops every pending idle fire for subject. Activity listeners stay
// installed, so the next activity event restarts the countdown.
func (t *Tracker) Cancel(subject Subject) {
	s, ok := t.sessions[subject]
	if !ok {
		return
	}
	t.cancel(s)
}

func (t *Tracker) cancel(s *session) {
	t.cancelTimers(s)
	s.lastReset = time.Time{}
	t.transition(s, Inactive)
}

// Done cancels and removes the activity listeners installed by Start.
func (t *Tracker) Done(subject Subject) {
	s, ok := t.sessions[subject]
	if !ok {
		return
	}
	t.cancel(s)
	s.activity.Close()
	logger.Debug("idle tracking done", "subject", subject.Name())
}

// Clear runs Done and also removes the idle listeners added through OnIdle
// and the focus/blur listeners added through Watch.
func (t *Tracker) Clear(subject Subject) {
	s, ok := t.sessions[subject]
	if !ok {
		return
	}
	t.Done(subject)
	s.idle.Close()
	s.watch.Close()
	delete(t.sessions, subject)
}

// OnIdle subscribes h to subject's idle notifications. Clear removes it.
func (t *Tracker) OnIdle(subject Subject, h bus.Handler) *bus.Subscription {
	s := t.session(subject)
	return s.idle.Add(subject.On(bus.EventIdle, h))
}

// Watch starts tracking when subject gains focus and stops it on blur.
func (t *Tracker) Watch(subject Subject, cfg Config) {
	s := t.session(subject)
	s.watch.Add(subject.On(bus.EventFocus, func(context.Context, *bus.Event) {
		if s.activity.Len() == 0 {
			t.Start(subject, cfg)
			return
		}
		t.reset(s)
	}))
	s.watch.Add(subject.On(bus.EventBlur, func(context.Context, *bus.Event) {
		t.Done(subject)
	}))
}

// Elapsed returns the time since the last activity while subject is Active.
func (t *Tracker) Elapsed(subject Subject) (time.Duration, bool) {
	s, ok := t.sessions[subject]
	if !ok || s.state != Active {
		return 0, false
	}
	return t.sched.Now().Sub(s.lastReset), true
}

// Running reports whether subject is Active.
func (t *Tracker) Running(subject Subject) bool {
	return t.State(subject) == Active
}

// State returns subject's state; untracked subjects are Inactive.
func (t *Tracker) State(subject Subject) State {
	if s, ok := t.sessions[subject]; ok {
		return s.state
	}
	return Inactive
}

func (t *Tracker) session(subject Subject) *session {
	if s, ok := t.sessions[subject]; ok {
		return s
	}
	s := &session{
		subject:     subject,
		cfg:         DefaultConfig(),
		outstanding: make(map[hostloop.Handle]struct{}),
	}
	t.sessions[subject] = s
	return s
}

func (t *Tracker) cancelTimers(s *session) {
	for h := range s.outstanding {
		t.sched.Cancel(h)
		delete(s.outstanding, h)
	}
}

func (t *Tracker) transition(s *session, to State) {
	from := s.state
	s.state = to
	if from == to {
		return
	}
	for _, fn := range t.observers {
		fn(s.subject, from, to)
	}
}
