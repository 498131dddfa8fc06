// Package logger builds the process-wide slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects level and output format.
type Config struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"LOG_FORMAT"` // text or json
}

// New creates a logger writing to stderr and installs it as slog's default.
func New(cfg Config) *slog.Logger {
	l := NewWithWriter(cfg, os.Stderr)
	slog.SetDefault(l)
	return l
}

// NewWithWriter creates a logger writing to w without touching the default.
func NewWithWriter(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
