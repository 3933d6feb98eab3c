package logging

import (
	"context"
	"errors"
	"log/slog"
)

// ContextProvider supplies attributes that change while the process runs,
// such as the session ID and the last notified state.
type ContextProvider interface {
	LogAttrs() []slog.Attr
}

// AttrsFunc adapts a function to ContextProvider.
type AttrsFunc func() []slog.Attr

// LogAttrs calls f.
func (f AttrsFunc) LogAttrs() []slog.Attr { return f() }

// fanout sends every record to all of its sinks. Attributes from the
// context provider are attached once per record, before the fan-out.
type fanout struct {
	sinks   []slog.Handler
	context ContextProvider
}

func newFanout(p ContextProvider, sinks ...slog.Handler) *fanout {
	f := &fanout{context: p}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to every enabled sink. A failing sink does not stop the
// others; all errors are returned joined.
func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	if f.context != nil {
		r.AddAttrs(f.context.LogAttrs()...)
	}
	var errs []error
	for _, s := range f.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *fanout) derive(fn func(slog.Handler) slog.Handler) *fanout {
	sinks := make([]slog.Handler, len(f.sinks))
	for i, s := range f.sinks {
		sinks[i] = fn(s)
	}
	return &fanout{sinks: sinks, context: f.context}
}
