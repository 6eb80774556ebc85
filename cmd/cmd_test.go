package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linanwx/conveyor/conveyor"
	"github.com/linanwx/conveyor/logger"
)

func TestRenderMask(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		factor float64
		want   string
	}{
		{name: "half of ten", n: 10, factor: 0.5, want: ".xxx.x.x.."},
		{name: "nothing", n: 4, factor: 0, want: "...."},
		{name: "everything keeps last", n: 4, factor: 1, want: "xxx."},
		{name: "empty", n: 0, factor: 0.5, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderMask(conveyor.DecimateMask(tt.n, tt.factor))
			if got != tt.want {
				t.Fatalf("renderMask() = %q, want %q", got, tt.want)
			}
		})
	}
}

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	t.Cleanup(logger.Close)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config-dir", t.TempDir()}, args...))
	defer rootCmd.SetArgs(nil)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute %v: %v", args, err)
	}
	return out.String()
}

func TestDecimateCommand(t *testing.T) {
	got := runRoot(t, "decimate", "--len", "10", "--factor", "0.3")
	want := "..x..x..x.  (3 of 10 dropped)\n"
	if got != want {
		t.Fatalf("decimate output = %q, want %q", got, want)
	}
}

func TestReplayCommand(t *testing.T) {
	path := filepath.Join("..", "internal", "scenario", "testdata", "editor.yaml")
	replayHTML = false
	t.Cleanup(func() { replayHTML = false })

	got := runRoot(t, "replay", "--html", path)
	for _, want := range []string{
		"   450ms  idle      #editor",
		"elapsed 600ms, 0 queued",
		`data-thinking="idle"`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("replay output missing %q:\n%s", want, got)
		}
	}
}

func TestReplayRejectsBadLogLevel(t *testing.T) {
	rootCmd.SetArgs([]string{"--config-dir", t.TempDir(), "--log-level", "loud", "decimate"})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		logLevelOverride = ""
	})
	if err := rootCmd.Execute(); err == nil || !strings.Contains(err.Error(), "invalid --log-level") {
		t.Fatalf("expected log level error, got %v", err)
	}
}

func TestInitDoesNotOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("queue:\n  speed: immediate\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(logger.Close)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config-dir", dir, "init"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "queue:\n  speed: immediate\n" {
		t.Fatalf("config overwritten: %q", data)
	}
}

func TestSetupRuntimeReportsUnresolvableConfigDir(t *testing.T) {
	t.Setenv("HOME", "")
	configDirFlag = "~/.conveyor"
	t.Cleanup(func() { configDirFlag = "" })

	err := setupRuntime(rootCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "resolve config dir") {
		t.Fatalf("expected config dir error, got %v", err)
	}
}
