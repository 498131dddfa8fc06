package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)
	l.Debug("hidden")
	l.Info("run finished", "new", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line (debug filtered), got %d: %q", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if rec["msg"] != "run finished" || rec["new"] != float64(3) {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestNewWithWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "debug"}, &buf)
	l.Debug("fetching", "source", "ieee")
	if !strings.Contains(buf.String(), "source=ieee") {
		t.Fatalf("expected text handler output, got %q", buf.String())
	}
}
