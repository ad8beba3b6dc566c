package app

import (
	"io"
	"log/slog"
)

// newLogger creates an isolated slog.Logger; it never touches the global
// default.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "text" {
		handler = slog.NewTextHandler(outW, opts)
	} else {
		handler = slog.NewJSONHandler(outW, opts)
	}
	return slog.New(handler)
}
