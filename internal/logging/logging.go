// Package logging adapts the teacher's per-subsystem logger pattern
// (originally vctt94/bisonbotkit/logging.LogBackend, itself built on
// decred/slog) without depending on bisonbotkit: a single LogBackend
// configured once in the composition root hands out a decred/slog.Logger
// per subsystem tag (e.g. "ORCH", "REPO", "REALTIME").
package logging

import (
	"os"
	"strings"

	"github.com/decred/slog"
)

// LogBackend owns one slog.Backend and mints per-subsystem loggers from
// it, so every subsystem's log lines share a destination and level.
type LogBackend struct {
	backend slog.Backend
	level   slog.Level
}

// NewLogBackend builds a backend writing to stdout at the given level
// ("trace", "debug", "info", "warn", "error", case-insensitive; unknown
// values fall back to "info").
func NewLogBackend(levelName string) *LogBackend {
	return &LogBackend{
		backend: slog.NewBackend(os.Stdout),
		level:   parseLevel(levelName),
	}
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "trace":
		return slog.LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns a tagged logger (e.g. "ORCH", "REPO") at the backend's
// configured level.
func (lb *LogBackend) Logger(tag string) slog.Logger {
	l := lb.backend.Logger(tag)
	l.SetLevel(lb.level)
	return l
}
