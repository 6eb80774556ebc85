// Package conveyor implements a throttled action queue ("conveyor belt").
//
// A Belt drains queued actions either synchronously as they arrive
// (Immediate) or one per tick of a recurring timer. Draining is LIFO: the
// most recently added action runs first. Callers that need FIFO order must
// not rely on a Belt.
//
// A Belt is not safe for concurrent use; drive it from the goroutine that
// runs its scheduler's callbacks.
package conveyor

import (
	"github.com/linanwx/conveyor/hostloop"
	"github.com/linanwx/conveyor/logger"
)

// Action is a queued unit of work.
type Action func()

type task struct {
	fn        Action
	decimated bool
}

func nop() {}

// Belt is the action queue.
type Belt struct {
	sched  hostloop.Scheduler
	queue  []task
	speed  Speed
	active bool
	timer  hostloop.Handle
}

// New creates a belt and starts it.
func New(sched hostloop.Scheduler, speed Speed) *Belt {
	b := &Belt{
		sched: sched,
		speed: speed,
	}
	b.Start()
	return b
}

// Add appends action. An active Immediate belt drains everything now; an
// active interval belt makes sure its drain timer is running.
func (b *Belt) Add(action Action) {
	if action == nil {
		return
	}
	b.queue = append(b.queue, task{fn: action})
	if !b.active {
		return
	}
	if b.speed.IsImmediate() {
		b.burn(-1)
		return
	}
	b.ensureTimer()
}

// Start resumes draining with the current speed.
func (b *Belt) Start() {
	b.start(nil)
}

// StartWith resumes draining at speed.
func (b *Belt) StartWith(speed Speed) {
	b.start(&speed)
}

func (b *Belt) start(speed *Speed) {
	b.cancelTimer()
	b.active = true
	if speed != nil {
		b.speed = *speed
	}
	logger.Debug("conveyor started", "speed", b.speed.String(), "queued", len(b.queue))

	if b.speed.IsImmediate() {
		b.burn(-1)
		return
	}
	if len(b.queue) > 0 {
		b.ensureTimer()
	}
}

// Stop pauses draining. Queued actions are kept.
func (b *Belt) Stop() {
	b.active = false
	b.cancelTimer()
	logger.Debug("conveyor stopped", "queued", len(b.queue))
}

// Flush discards every queued action without running it.
func (b *Belt) Flush() {
	b.FlushTo(0)
}

// FlushTo keeps the first n actions in insertion order and discards the
// rest without running them. Negative n discards everything.
func (b *Belt) FlushTo(n int) {
	if n < 0 {
		n = 0
	}
	if n >= len(b.queue) {
		return
	}
	clear(b.queue[n:])
	b.queue = b.queue[:n]
}

// Burn runs every queued action now, most recent first, and returns how many ran.
func (b *Belt) Burn() int {
	return b.burn(-1)
}

// BurnN runs up to n queued actions now, most recent first, and returns how
// many ran.
func (b *Belt) BurnN(n int) int {
	if n <= 0 {
		return 0
	}
	return b.burn(n)
}

// burn pops from the live queue on every step so actions added while it
// runs are picked up rather than lost. A panic leaves the queue consistent:
// the panicking action has already been removed.
func (b *Belt) burn(n int) int {
	count := 0
	for len(b.queue) > 0 && (n < 0 || count < n) {
		t := b.pop()
		count++
		t.fn()
	}
	return count
}

// process is the drain timer's tick.
func (b *Belt) process() {
	if len(b.queue) == 0 {
		if !b.speed.IsImmediate() {
			b.cancelTimer()
		}
		return
	}
	b.pop().fn()
}

func (b *Belt) pop() task {
	last := len(b.queue) - 1
	t := b.queue[last]
	b.queue[last] = task{}
	b.queue = b.queue[:last]
	return t
}

func (b *Belt) ensureTimer() {
	if b.timer != 0 {
		return
	}
	b.timer = b.sched.Every(b.speed.Interval(), b.process)
}

func (b *Belt) cancelTimer() {
	if b.timer == 0 {
		return
	}
	b.sched.Cancel(b.timer)
	b.timer = 0
}

// Len returns the number of queued slots, decimated ones included.
func (b *Belt) Len() int {
	return len(b.queue)
}

// Live returns the number of queued slots that still hold real work.
func (b *Belt) Live() int {
	n := 0
	for _, t := range b.queue {
		if !t.decimated {
			n++
		}
	}
	return n
}

// Active reports whether the belt drains on its own.
func (b *Belt) Active() bool {
	return b.active
}

// Speed returns the current drain speed.
func (b *Belt) Speed() Speed {
	return b.speed
}

// Scheduled reports whether a drain timer is currently armed.
func (b *Belt) Scheduled() bool {
	return b.timer != 0
}
