package bus

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnSpaceSeparatedNames(t *testing.T) {
	e := NewEmitter("#editor")
	var got []string
	sub := e.On(" keydown  mousemove keydown ", func(_ context.Context, ev *Event) {
		got = append(got, ev.Type)
	})
	require.NotNil(t, sub)
	assert.Equal(t, []string{"keydown", "mousemove"}, sub.Names)
	assert.Equal(t, "sub-1", sub.ID)

	assert.Equal(t, 1, e.Emit(context.Background(), "keydown", nil))
	assert.Equal(t, 1, e.Emit(context.Background(), "mousemove", nil))
	assert.Equal(t, 0, e.Emit(context.Background(), "scroll", nil))
	assert.Equal(t, []string{"keydown", "mousemove"}, got)
}

func TestOnEmptyNamesOrHandler(t *testing.T) {
	e := NewEmitter("x")
	assert.Nil(t, e.On("   ", func(context.Context, *Event) {}))
	assert.Nil(t, e.On("keydown", nil))
	assert.Equal(t, 0, e.Count("keydown"))
}

func TestOffRemovesOnlyThatSubscription(t *testing.T) {
	e := NewEmitter("x")
	hostCalls, ownCalls := 0, 0
	e.On("keydown", func(context.Context, *Event) { hostCalls++ })
	own := e.On("keydown", func(context.Context, *Event) { ownCalls++ })

	e.Off(own)
	e.Off(own)
	e.Off(nil)
	e.Emit(context.Background(), "keydown", nil)

	assert.Equal(t, 1, hostCalls)
	assert.Equal(t, 0, ownCalls)
	assert.Equal(t, 1, e.Count("keydown"))
}

func TestOffIgnoresForeignSubscription(t *testing.T) {
	a, b := NewEmitter("a"), NewEmitter("b")
	sub := a.On("idle", func(context.Context, *Event) {})
	b.Off(sub)
	assert.Equal(t, 1, a.Count("idle"))
}

func TestEmitUsesSnapshotDuringDispatch(t *testing.T) {
	e := NewEmitter("x")
	var order []string
	var second *Subscription
	e.On("tick", func(context.Context, *Event) {
		order = append(order, "first")
		e.Off(second)
		e.On("tick", func(context.Context, *Event) { order = append(order, "late") })
	})
	second = e.On("tick", func(context.Context, *Event) { order = append(order, "second") })

	e.Emit(context.Background(), "tick", nil)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestEventCarriesSubjectAndClockTime(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	e := NewEmitter("#panel")
	e.SetClock(clockwork.NewFakeClockAt(at))

	var got *Event
	e.On("idle", func(_ context.Context, ev *Event) { got = ev })
	e.Emit(context.Background(), "idle", 42)
	require.NotNil(t, got)
	assert.Equal(t, "#panel", got.Subject)
	assert.Equal(t, at, got.Timestamp)
	assert.Equal(t, 42, got.Data)
}

func TestGroupCloseLeavesHostHandlers(t *testing.T) {
	e := NewEmitter("x")
	var g Group
	host := 0
	e.On("keydown", func(context.Context, *Event) { host++ })
	g.Add(e.On("keydown mousemove", func(context.Context, *Event) { t.Error("group handler should be gone") }))
	g.Add(nil)
	assert.Equal(t, 1, g.Len())

	g.Close()
	assert.Equal(t, 0, g.Len())
	e.Emit(context.Background(), "keydown", nil)
	e.Emit(context.Background(), "mousemove", nil)
	assert.Equal(t, 1, host)
}
