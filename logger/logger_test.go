package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestSetOutputWritesPairs(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer Close()

	Debug("queue started", "speed", "100ms", "dangling")
	out := buf.String()
	assert.Contains(t, out, "queue started")
	assert.Contains(t, out, "speed=100ms")
	assert.Contains(t, out, "dangling=(missing)")
}

func TestInitFileRelativeToConfigDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Init(Config{Enabled: true, Level: "info", File: "logs/test.log"}, dir))
	defer Close()

	Debug("hidden")
	Info("shown", "subject", "#editor")

	data, err := os.ReadFile(filepath.Join(dir, "logs", "test.log"))
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(data), "hidden"))
	assert.Contains(t, string(data), "subject=#editor")
}

func TestInitDisabledDiscards(t *testing.T) {
	require.NoError(t, Init(Config{Enabled: false}, ""))
	Error("nothing")
	mu.RLock()
	on := enabled
	mu.RUnlock()
	assert.False(t, on)
}
