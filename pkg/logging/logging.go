package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger. Log output goes to stderr so it never mixes
// with rendered views on stdout.
type Logger struct {
	*slog.Logger
}

// New creates a logger writing JSON records to w at the given level.
func New(w io.Writer, level string) *Logger {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: logLevel})
	return &Logger{Logger: slog.New(handler)}
}

// Default returns a stderr logger at info level.
func Default() *Logger {
	return New(os.Stderr, "info")
}
