// Package logger provides opinionated logging capabilities for the sift system
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	writers []io.Writer
}

// New creates a *slog.Logger configured via the given options.
// The default is a text handler writing to stdout at Info level.
// WithPretty selects the charmbracelet/log handler for CLI output,
// WithJSON selects slog's JSON handler for service logs.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level:   slog.LevelInfo,
		writers: []io.Writer{os.Stdout},
	}

	for _, opt := range opts {
		opt(c)
	}

	var w io.Writer
	if len(c.writers) == 1 {
		w = c.writers[0]
	} else {
		w = io.MultiWriter(c.writers...)
	}

	var handler slog.Handler
	switch {
	case c.pretty:
		cl := charmlog.NewWithOptions(w, charmlog.Options{
			ReportCaller:    c.source,
			ReportTimestamp: true,
		})
		if c.level == slog.LevelDebug {
			cl.SetLevel(charmlog.DebugLevel)
		}
		handler = cl

	case c.json:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})

	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     c.level,
			AddSource: c.source,
		})
	}

	return slog.New(handler)
}

// Nop returns a *slog.Logger that discards everything. Intended for tests.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (n nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return n }
func (n nopHandler) WithGroup(string) slog.Handler           { return n }
