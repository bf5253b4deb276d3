package log

import (
	"io"
	"log/slog"
	"os"
)

// NewHandler returns a text handler on stderr, or a JSON one when json is set.
func NewHandler(json bool, opts *slog.HandlerOptions) slog.Handler {
	return newHandler(os.Stderr, json, opts)
}

func newHandler(w io.Writer, json bool, opts *slog.HandlerOptions) slog.Handler {
	if json {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

func Level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}
