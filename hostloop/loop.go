// Package hostloop provides the host scheduler that drives conveyor belts and
// idle trackers: one-shot and recurring timers executed one at a time on a
// single logical thread of control.
package hostloop

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/linanwx/conveyor/logger"
)

var (
	// ErrRealClock is returned by Advance when the loop's clock cannot be moved by hand.
	ErrRealClock = errors.New("hostloop: clock cannot be advanced manually")

	// ErrLoopAlreadyRunning is returned when Run is called on a loop that is already running.
	ErrLoopAlreadyRunning = errors.New("hostloop: loop is already running")
)

// Handle identifies a scheduled timer. The zero Handle is never issued and
// cancelling it is a no-op.
type Handle uint64

// Scheduler is the timer surface components are written against.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) Handle
	Every(d time.Duration, fn func()) Handle
	Cancel(h Handle)
}

// advancer is satisfied by clockwork's fake clock.
type advancer interface {
	Advance(d time.Duration)
}

// Loop owns a timer heap and runs due callbacks sequentially.
//
// Callbacks never run concurrently with each other and never run while the
// loop's lock is held, so they may schedule and cancel timers freely.
// RunDue and Advance must not be called while Run is active.
type Loop struct {
	clock clockwork.Clock

	mu     sync.Mutex
	timers timerHeap
	live   map[Handle]*entry
	nextID Handle
	seq    uint64

	wake    chan struct{}
	running atomic.Bool
}

var _ Scheduler = (*Loop)(nil)

// New creates a loop on clock. A nil clock means the real clock.
func New(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock: clock,
		live:  make(map[Handle]*entry),
		wake:  make(chan struct{}, 1),
	}
}

// Clock returns the loop's clock.
func (l *Loop) Clock() clockwork.Clock {
	return l.clock
}

// Now returns the current time according to the loop's clock.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// After schedules fn to run once, d from now.
func (l *Loop) After(d time.Duration, fn func()) Handle {
	if d < 0 {
		d = 0
	}
	return l.schedule(d, 0, fn)
}

// Every schedules fn to run every d until cancelled. Non-positive intervals
// are refused and yield the zero Handle.
func (l *Loop) Every(d time.Duration, fn func()) Handle {
	if d <= 0 {
		logger.Warn("refusing recurring timer with non-positive interval", "interval", d)
		return 0
	}
	return l.schedule(d, d, fn)
}

// Post runs fn on the loop as soon as possible.
func (l *Loop) Post(fn func()) Handle {
	return l.schedule(0, 0, fn)
}

// Cancel stops the timer identified by h. Unknown or fired handles are ignored.
func (l *Loop) Cancel(h Handle) {
	if h == 0 {
		return
	}
	l.mu.Lock()
	delete(l.live, h)
	if len(l.timers) > 64 && len(l.timers) > 2*len(l.live) {
		l.compactLocked()
	}
	l.mu.Unlock()
	l.signal()
}

// Pending returns the number of live timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.live)
}

// RunDue fires every timer whose deadline is not after the current time and
// returns how many callbacks ran. Timers scheduled for "now" by a callback
// run in the same pass.
func (l *Loop) RunDue() int {
	now := l.clock.Now()
	count := 0
	for {
		e := l.popDue(now)
		if e == nil {
			return count
		}
		l.fire(e, now)
		count++
	}
}

// Advance moves a fake clock forward by d, stopping at every deadline on the
// way so callbacks observe the time they were scheduled for.
func (l *Loop) Advance(d time.Duration) error {
	adv, ok := l.clock.(advancer)
	if !ok {
		return ErrRealClock
	}
	target := l.clock.Now().Add(d)
	for {
		l.RunDue()
		next, ok := l.nextDeadline()
		if !ok || next.After(target) {
			break
		}
		if step := next.Sub(l.clock.Now()); step > 0 {
			adv.Advance(step)
		}
	}
	if rest := target.Sub(l.clock.Now()); rest > 0 {
		adv.Advance(rest)
	}
	l.RunDue()
	return nil
}

// Run drives the timers with the loop's clock until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	defer l.running.Store(false)

	for {
		l.RunDue()

		var timer clockwork.Timer
		var timerCh <-chan time.Time
		if next, ok := l.nextDeadline(); ok {
			d := next.Sub(l.clock.Now())
			if d < 0 {
				d = 0
			}
			timer = l.clock.NewTimer(d)
			timerCh = timer.Chan()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-timerCh:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (l *Loop) schedule(delay, every time.Duration, fn func()) Handle {
	if fn == nil {
		return 0
	}
	l.mu.Lock()
	l.nextID++
	l.seq++
	e := &entry{
		id:    l.nextID,
		when:  l.clock.Now().Add(delay),
		every: every,
		seq:   l.seq,
		fn:    fn,
	}
	l.live[e.id] = e
	heapPush(&l.timers, e)
	l.mu.Unlock()
	l.signal()
	return e.id
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// popDue removes and returns the earliest live entry due at now. One-shot
// entries leave the live set here; recurring ones stay until cancelled.
func (l *Loop) popDue(now time.Time) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.timers) > 0 {
		top := l.timers[0]
		if l.live[top.id] != top {
			heapPop(&l.timers)
			continue
		}
		if top.when.After(now) {
			return nil
		}
		heapPop(&l.timers)
		if top.every == 0 {
			delete(l.live, top.id)
		}
		return top
	}
	return nil
}

func (l *Loop) nextDeadline() (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.timers) > 0 {
		top := l.timers[0]
		if l.live[top.id] != top {
			heapPop(&l.timers)
			continue
		}
		return top.when, true
	}
	return time.Time{}, false
}

func (l *Loop) fire(e *entry, now time.Time) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("timer callback panic", "handle", uint64(e.id), "panic", r, "stack", string(debug.Stack()))
			}
		}()
		e.fn()
	}()

	if e.every == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.live[e.id] != e {
		return
	}
	next := e.when.Add(e.every)
	if !next.After(now) {
		next = now.Add(e.every)
	}
	l.seq++
	e.when = next
	e.seq = l.seq
	heapPush(&l.timers, e)
}

func (l *Loop) compactLocked() {
	kept := l.timers[:0]
	for _, e := range l.timers {
		if l.live[e.id] == e {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(l.timers); i++ {
		l.timers[i] = nil
	}
	l.timers = kept
	heapInit(&l.timers)
}
