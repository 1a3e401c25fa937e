package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	slogseq "github.com/sokkalf/slog-seq"
)

// multiHandler forwards log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// newConsoleHandler logs to w, in color when w is a terminal.
func newConsoleHandler(w *os.File, level slog.Leveler) slog.Handler {
	var out io.Writer = w
	if isatty.IsTerminal(w.Fd()) {
		out = colorable.NewColorable(w)
	}
	return tint.NewHandler(out, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(w.Fd()),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch v := a.Value.Any().(type) {
			case string:
				if v == "" {
					return slog.Attr{}
				}
			case nil:
				return slog.Attr{}
			}
			return a
		},
	})
}

// initLogger returns the process logger and a function flushing it. Logs also
// go to Seq when seqURL is set.
func initLogger(level, seqURL string) (*slog.Logger, func()) {
	ll := &slog.LevelVar{}
	ll.Set(parseLevel(level))
	console := newConsoleHandler(os.Stderr, ll)
	if seqURL == "" {
		return slog.New(console), func() {}
	}
	_, seq := slogseq.NewLogger(
		seqURL,
		slogseq.WithBatchSize(50),
		slogseq.WithFlushInterval(time.Second),
		slogseq.WithHandlerOptions(&slog.HandlerOptions{Level: ll}),
	)
	if seq == nil {
		return slog.New(console), func() {}
	}
	return slog.New(&multiHandler{handlers: []slog.Handler{console, seq}}), func() { seq.Close() }
}
