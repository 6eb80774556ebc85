package scenario

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linanwx/conveyor/conveyor"
	"github.com/linanwx/conveyor/thinking"
)

var defaults = Defaults{
	Idle:  thinking.DefaultConfig(),
	Speed: conveyor.Every(time.Second),
}

func lines(trace []Entry) []string {
	out := make([]string, 0, len(trace))
	for _, e := range trace {
		out = append(out, fmt.Sprintf("%s %s %s %s", e.At, e.Kind, e.Subject, e.Detail))
	}
	return out
}

func TestRunEditorScenario(t *testing.T) {
	sc, err := Load("testdata/editor.yaml")
	require.NoError(t, err)

	res, err := Run(context.Background(), sc, defaults)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"0s start #editor keydown mousemove",
		"0s active #editor ",
		"0s emit #editor keydown",
		"0s add  save-1",
		"100ms run  save-1",
		"100ms emit #editor mousemove",
		"100ms add  save-2",
		"100ms add  save-3",
		"200ms run  save-3",
		"250ms emit #editor keydown",
		"300ms run  save-2",
		"450ms idle #editor ",
	}, lines(res.Trace))
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 600*time.Millisecond, res.Elapsed)
	assert.Contains(t, res.HTML, `data-thinking="idle"`)
	assert.Contains(t, res.HTML, `class="thinking-idle"`)
}

func TestRunQueueOperationsWithoutDocument(t *testing.T) {
	sc, err := Parse([]byte(`
queue:
  speed: immediate
steps:
  - stop: true
    add: [a, b, c, d, e]
  - decimate: 0.4
  - flush: 4
  - resume: true
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), sc, defaults)
	require.NoError(t, err)

	var ran []string
	for _, e := range res.Trace {
		if e.Kind == "run" {
			ran = append(ran, e.Detail)
		}
	}
	// stride 2 marks b and d, flush drops e, the LIFO burn skips both no-ops.
	assert.Equal(t, []string{"c", "a"}, ran)
	assert.Equal(t, 0, res.Remaining)
	assert.Empty(t, res.HTML)
}

func TestRunWatchAndPlainSubjects(t *testing.T) {
	sc, err := Parse([]byte(`
idle:
  delay: 50ms
  events: keydown
steps:
  - watch: panel
  - at: 10ms
    subject: panel
    emit: focus
  - at: 20ms
    subject: panel
    emit: blur
  - at: 100ms
    subject: panel
    emit: focus keydown
until: 200ms
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), sc, defaults)
	require.NoError(t, err)

	var states []string
	for _, e := range res.Trace {
		switch e.Kind {
		case "active", "idle", "inactive":
			states = append(states, fmt.Sprintf("%s %s", e.At, e.Kind))
		}
	}
	assert.Equal(t, []string{"10ms active", "20ms inactive", "100ms active", "150ms idle"}, states)
}

func TestRunBurnAndSpeedChange(t *testing.T) {
	sc, err := Parse([]byte(`
queue:
  speed: 10ms
steps:
  - stop: true
    add: [a, b, c]
  - burn: 1
  - resume: true
    speed: 50ms
until: 200ms
`))
	require.NoError(t, err)

	res, err := Run(context.Background(), sc, defaults)
	require.NoError(t, err)

	var ran []string
	for _, e := range res.Trace {
		if e.Kind == "run" {
			ran = append(ran, fmt.Sprintf("%s %s", e.At, e.Detail))
		}
	}
	assert.Equal(t, []string{"0s c", "50ms b", "100ms a"}, ran)
}

func TestRunUnknownSelector(t *testing.T) {
	sc, err := Parse([]byte(`
document: "<p id='x'></p>"
steps:
  - start: "#nope"
`))
	require.NoError(t, err)
	_, err = Run(context.Background(), sc, defaults)
	assert.ErrorContains(t, err, "step 1")
}

func TestRunHonoursCancelledContext(t *testing.T) {
	sc, err := Parse([]byte("steps:\n  - add: [a]\n"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, sc, defaults)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"steps: []\n": "no steps",
		"steps:\n  - at: 20ms\n    add: [a]\n  - at: 10ms\n    add: [b]\n": "before previous step",
		"steps:\n  - at: 10ms\n":                                       "no operation",
		"steps:\n  - emit: keydown\n":                                  "needs a subject",
		"steps:\n  - add: [a]\n    speed: 10ms\n":                      "only valid with resume",
		"until: 5ms\nsteps:\n  - at: 10ms\n    add: [a]\n":             "until",
		"steps:\n  - at: -1s\n    add: [a]\n":                          "negative offset",
		"queue:\n  speed: never\nsteps:\n  - add: [a]\n":                "invalid speed",
		"steps:\n  - at: 100\n    add: [a]\n":                          "at: 100 needs a unit",
		"until: 500\nsteps:\n  - add: [a]\n":                           "until: 500 needs a unit",
		"idle:\n  delay: 200\nsteps:\n  - add: [a]\n":                 "delay: 200 needs a unit",
	}
	for doc, want := range cases {
		_, err := Parse([]byte(doc))
		assert.ErrorContains(t, err, want, doc)
	}
}

func TestEntryString(t *testing.T) {
	e := Entry{At: 150 * time.Millisecond, Kind: "emit", Subject: "#editor", Detail: "keydown"}
	assert.Equal(t, "   150ms  emit      #editor keydown", e.String())
	assert.Equal(t, "      0s  stop", Entry{Kind: "stop"}.String())
}

func TestParseAcceptsZeroAndUnitDurations(t *testing.T) {
	sc, err := Parse([]byte("idle:\n  delay: 200ms\nsteps:\n  - at: 0\n    add: [a]\n  - at: 1s\n    add: [b]\n"))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), sc.Steps[0].At)
	assert.Equal(t, time.Second, sc.Steps[1].At)
	assert.Equal(t, 200*time.Millisecond, sc.Idle.Delay)
}
