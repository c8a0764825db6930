// Package logging sets up structured logging for tally. The TUI owns the
// terminal, so logs go to a JSON file under the user cache directory, never
// to stdout or stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// EnvLogLevel selects verbosity: debug, info, warn or error. Default info.
const EnvLogLevel = "TALLY_LOG_LEVEL"

// New returns a logger writing to <cache dir>/tally/<service>.log and a
// close function for it. If the file cannot be opened the logger discards
// everything; a browser session must not fail over logging.
func New(service string) (*slog.Logger, func() error) {
	nop := func() error { return nil }

	dir, err := os.UserCacheDir()
	if err != nil {
		return discard(), nop
	}
	dir = filepath.Join(dir, "tally")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return discard(), nop
	}

	file, err := os.OpenFile(filepath.Join(dir, service+".log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return discard(), nop
	}

	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: levelFromEnv()})
	return slog.New(handler).With("service", service), file.Close
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv(EnvLogLevel)) {
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
