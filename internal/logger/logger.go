// Package logger builds the JSON structured logger shared by every component.
// Records use the keys ts, level and msg plus component-specific attributes
// such as component, event, status and duration_ms.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// New returns a JSON logger writing to stdout with timestamps rendered in loc.
func New(loc *time.Location, level slog.Level) *slog.Logger {
	return NewWithWriter(os.Stdout, loc, level)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, loc *time.Location, level slog.Level) *slog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			}
			return a
		},
	})
	return slog.New(h)
}

// Discard returns a logger that drops every record. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Component tags every record with the owning component name.
func Component(l *slog.Logger, name string) *slog.Logger {
	if l == nil {
		l = Discard()
	}
	return l.With(slog.String("component", name))
}
