package scenario

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/linanwx/conveyor/bus"
	"github.com/linanwx/conveyor/conveyor"
	"github.com/linanwx/conveyor/dom"
	"github.com/linanwx/conveyor/hostloop"
	"github.com/linanwx/conveyor/logger"
	"github.com/linanwx/conveyor/thinking"
)

// epoch anchors the virtual clock; trace offsets are relative to it.
var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Defaults fill in whatever the scenario leaves unset.
type Defaults struct {
	Idle  thinking.Config
	Speed conveyor.Speed
}

// Entry is one line of the replay trace.
type Entry struct {
	At      time.Duration
	Kind    string
	Subject string
	Detail  string
}

func (e Entry) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%8s  %-9s", e.At, e.Kind)
	if e.Subject != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Subject)
	}
	if e.Detail != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Detail)
	}
	return strings.TrimRight(sb.String(), " ")
}

// Result is the outcome of a replay.
type Result struct {
	Trace     []Entry
	HTML      string // final document, empty when the scenario has none
	Remaining int    // slots still queued on the belt
	Elapsed   time.Duration
}

type runner struct {
	clock   clockwork.Clock
	loop    *hostloop.Loop
	belt    *conveyor.Belt
	tracker *thinking.Tracker
	doc     *dom.Document
	idle    thinking.Config

	emitters map[string]*bus.Emitter
	seen     map[string]bool
	trace    []Entry
}

// Run replays sc on a fresh virtual clock.
func Run(ctx context.Context, sc *Scenario, def Defaults) (*Result, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	clock := clockwork.NewFakeClockAt(epoch)
	r := &runner{
		clock:    clock,
		loop:     hostloop.New(clock),
		idle:     def.Idle,
		emitters: make(map[string]*bus.Emitter),
		seen:     make(map[string]bool),
	}
	if sc.Idle.Delay > 0 {
		r.idle.Delay = sc.Idle.Delay
	}
	if strings.TrimSpace(sc.Idle.Events) != "" {
		r.idle.Events = sc.Idle.Events
	}
	speed := def.Speed
	if sc.Queue.Speed != nil {
		speed = *sc.Queue.Speed
	}

	if strings.TrimSpace(sc.Document) != "" {
		doc, err := dom.ParseString(sc.Document)
		if err != nil {
			return nil, err
		}
		r.doc = doc
	}

	r.tracker = thinking.NewTracker(r.loop)
	r.tracker.Observe(func(subject thinking.Subject, _, to thinking.State) {
		r.record(to.String(), subject.Name(), "")
	})
	if r.doc != nil {
		r.doc.Bind(r.tracker)
	}
	r.belt = conveyor.New(r.loop, speed)
	logger.Debug("replay started", "steps", len(sc.Steps), "speed", speed.String(), "idle_delay", r.idle.Delay)

	var last time.Duration
	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.advanceTo(step.At); err != nil {
			return nil, err
		}
		if err := r.apply(step); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		last = step.At
	}

	until := sc.Until
	if until == 0 {
		until = last + r.idle.Delay
		if !r.belt.Speed().IsImmediate() {
			if drain := last + r.belt.Speed().Interval()*time.Duration(r.belt.Len()+1); drain > until {
				until = drain
			}
		}
	}
	if err := r.advanceTo(until); err != nil {
		return nil, err
	}

	res := &Result{
		Trace:     r.trace,
		Remaining: r.belt.Len(),
		Elapsed:   r.offset(),
	}
	if r.doc != nil {
		html, err := r.doc.HTML()
		if err != nil {
			return nil, fmt.Errorf("render document: %w", err)
		}
		res.HTML = html
	}
	return res, nil
}

func (r *runner) apply(step Step) error {
	if step.Watch != "" {
		subj, err := r.subject(step.Watch)
		if err != nil {
			return err
		}
		r.record("watch", subj.Name(), r.idle.Events)
		r.tracker.Watch(subj, r.idle)
	}
	if step.Start != "" {
		subj, err := r.subject(step.Start)
		if err != nil {
			return err
		}
		r.record("start", subj.Name(), r.idle.Events)
		r.tracker.Start(subj, r.idle)
	}
	if step.Emit != "" {
		subj, err := r.subject(step.Subject)
		if err != nil {
			return err
		}
		for _, name := range bus.SplitNames(step.Emit) {
			r.record("emit", subj.Name(), name)
			subj.Emit(context.Background(), name, nil)
		}
	}
	for _, op := range []struct {
		kind   string
		target string
		fn     func(thinking.Subject)
	}{
		{"cancel", step.Cancel, r.tracker.Cancel},
		{"done", step.Done, r.tracker.Done},
		{"clear", step.Clear, r.tracker.Clear},
	} {
		if op.target == "" {
			continue
		}
		subj, err := r.subject(op.target)
		if err != nil {
			return err
		}
		r.record(op.kind, subj.Name(), "")
		op.fn(subj)
	}

	if step.Stop {
		r.record("stop", "", "")
		r.belt.Stop()
	}
	for _, name := range step.Add {
		name := name
		r.record("add", "", name)
		r.belt.Add(func() { r.record("run", "", name) })
	}
	if step.Decimate != nil {
		before := r.belt.Len()
		marked := r.belt.Decimate(*step.Decimate)
		r.record("decimate", "", fmt.Sprintf("marked %d of %d", marked, before))
	}
	if step.Burn != nil {
		n := *step.Burn
		r.record("burn", "", fmt.Sprintf("limit %d", n))
		if n < 0 {
			r.belt.Burn()
		} else {
			r.belt.BurnN(n)
		}
	}
	if step.Flush != nil {
		before := r.belt.Len()
		r.belt.FlushTo(*step.Flush)
		r.record("flush", "", fmt.Sprintf("dropped %d", before-r.belt.Len()))
	}
	if step.Resume {
		if step.Speed != nil {
			r.record("resume", "", step.Speed.String())
			r.belt.StartWith(*step.Speed)
		} else {
			r.record("resume", "", r.belt.Speed().String())
			r.belt.Start()
		}
	}
	return nil
}

func (r *runner) subject(name string) (thinking.Subject, error) {
	name = strings.TrimSpace(name)
	if r.doc != nil {
		el, err := r.doc.Element(name)
		if err != nil {
			return nil, err
		}
		if !r.seen[name] {
			el.SetClock(r.clock)
			r.seen[name] = true
		}
		return el, nil
	}
	em, ok := r.emitters[name]
	if !ok {
		em = bus.NewEmitter(name)
		em.SetClock(r.clock)
		r.emitters[name] = em
	}
	return em, nil
}

func (r *runner) advanceTo(at time.Duration) error {
	if d := at - r.offset(); d > 0 {
		return r.loop.Advance(d)
	}
	return nil
}

func (r *runner) offset() time.Duration {
	return r.loop.Now().Sub(epoch)
}

func (r *runner) record(kind, subject, detail string) {
	r.trace = append(r.trace, Entry{
		At:      r.offset(),
		Kind:    kind,
		Subject: subject,
		Detail:  detail,
	})
}
