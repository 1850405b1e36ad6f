package middleware

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// captureHandler records log records together with attributes added through
// With.
type captureHandler struct {
	mu    *sync.Mutex
	attrs []slog.Attr
	recs  *[]captured
}

type captured struct {
	msg   string
	level slog.Level
	attrs map[string]any
}

func newCapture() *captureHandler {
	return &captureHandler{mu: &sync.Mutex{}, recs: &[]captured{}}
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	c := captured{msg: r.Message, level: r.Level, attrs: map[string]any{}}
	for _, a := range h.attrs {
		c.attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		c.attrs[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	*h.recs = append(*h.recs, c)
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := *h
	out.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &out
}

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) records() []captured {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]captured{}, *h.recs...)
}

// last returns the last record with msg.
func (h *captureHandler) last(msg string) (captured, bool) {
	recs := h.records()
	for i := len(recs) - 1; i >= 0; i-- {
		if recs[i].msg == msg {
			return recs[i], true
		}
	}
	return captured{}, false
}
