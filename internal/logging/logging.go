// Package logging configures the process-wide slog logger for gridctl.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the slog handler.
type Format int

const (
	// FormatText writes key=value lines.
	FormatText Format = iota
	// FormatJSON writes one JSON object per record.
	FormatJSON
)

// New returns a logger writing to w in the given format. Debug records are
// kept only when debug is true. A nil w writes to os.Stderr.
func New(debug bool, format Format, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Setup installs a text logger as the slog default and returns it.
func Setup(debug bool, w io.Writer) *slog.Logger {
	logger := New(debug, FormatText, w)
	slog.SetDefault(logger)
	return logger
}

// SetupJSON installs a JSON logger as the slog default and returns it.
func SetupJSON(debug bool, w io.Writer) *slog.Logger {
	logger := New(debug, FormatJSON, w)
	slog.SetDefault(logger)
	return logger
}
