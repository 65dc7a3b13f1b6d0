// Package log builds the slog.Logger the oxbind commands run with.
//
// Console runs split output by severity: records below error go to stdout,
// errors go to stderr, so shell redirection separates generation progress
// from failures. A log file replaces the split console handlers entirely.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// LevelTrace sits below slog.LevelDebug for per-declaration emission traces.
const LevelTrace slog.Level = -8

// ParseLevel maps a CLI level string to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "trace":
		return LevelTrace
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

// fanout forwards every record to all of its handlers.
type fanout struct{ handlers []slog.Handler }

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f.handlers {
		_ = h.Handle(ctx, r)
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithAttrs(attrs)
	}
	return fanout{handlers: out}
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		out[i] = h.WithGroup(name)
	}
	return fanout{handlers: out}
}

// levelRange admits only records inside [min, max] to the wrapped handler.
type levelRange struct {
	min, max slog.Level
	next     slog.Handler
}

func (l levelRange) admits(level slog.Level) bool {
	return level >= l.min && level <= l.max
}

func (l levelRange) Enabled(ctx context.Context, level slog.Level) bool {
	return l.admits(level) && l.next.Enabled(ctx, level)
}

func (l levelRange) Handle(ctx context.Context, r slog.Record) error {
	if !l.admits(r.Level) {
		return nil
	}
	return l.next.Handle(ctx, r)
}

func (l levelRange) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelRange{min: l.min, max: l.max, next: l.next.WithAttrs(attrs)}
}

func (l levelRange) WithGroup(name string) slog.Handler {
	return levelRange{min: l.min, max: l.max, next: l.next.WithGroup(name)}
}

// SetupLogger builds the logger from the CLI's level and optional file
// destination. Returned closers belong to the caller and outlive the run.
func SetupLogger(logLevel, logFile string) (*slog.Logger, []io.Closer, error) {
	level := ParseLevel(logLevel)

	if logFile == "" {
		stdout := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		stderr := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})
		handler := fanout{handlers: []slog.Handler{
			levelRange{min: LevelTrace, max: slog.LevelError - 1, next: stdout},
			levelRange{min: slog.LevelError, max: slog.Level(127), next: stderr},
		}}
		return slog.New(handler), nil, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	handler := fanout{handlers: []slog.Handler{
		slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
		slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}),
	}}
	return slog.New(handler), []io.Closer{f}, nil
}
