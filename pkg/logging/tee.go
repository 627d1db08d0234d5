package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler writes to the file handler and, when enabled, to the console
// handler. The console can be switched on after loggers were created, so
// attributes and groups are replayed onto it for each record.
type teeHandler struct {
	primary slog.Handler
	derive  []func(slog.Handler) slog.Handler
}

func (h *teeHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return h.primary.Enabled(ctx, lvl)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	err := h.primary.Handle(ctx, r.Clone())
	if p := console.Load(); p != nil {
		c := *p
		for _, d := range h.derive {
			c = d(c)
		}
		err = errors.Join(err, c.Handle(ctx, r))
	}
	return err
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.with(h.primary.WithAttrs(attrs), func(c slog.Handler) slog.Handler {
		return c.WithAttrs(attrs)
	})
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.with(h.primary.WithGroup(name), func(c slog.Handler) slog.Handler {
		return c.WithGroup(name)
	})
}

func (h *teeHandler) with(primary slog.Handler, d func(slog.Handler) slog.Handler) *teeHandler {
	derive := make([]func(slog.Handler) slog.Handler, len(h.derive), len(h.derive)+1)
	copy(derive, h.derive)
	return &teeHandler{primary: primary, derive: append(derive, d)}
}
