// Package logging installs the process-wide slog handler for the commands.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// LevelEnv names the variable holding the log level.
const LevelEnv = "ULASAN_LOG_LEVEL"

// ParseLevel maps debug/info/warn/error to a slog level. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// New returns a tint logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		AddSource:  level == slog.LevelDebug,
	}))
}

// Init sets the default logger on stderr at the level from ULASAN_LOG_LEVEL.
// Stdout stays free for command output.
func Init() *slog.Logger {
	logger := New(os.Stderr, ParseLevel(os.Getenv(LevelEnv)))
	slog.SetDefault(logger)
	return logger
}
