package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	debugColor = color.New(color.FgHiBlack)
	infoColor  = color.New(color.FgCyan)
	warnColor  = color.New(color.FgHiYellow)
	errorColor = color.New(color.FgHiRed, color.Bold)
	keyColor   = color.New(color.FgHiBlack)
)

type HandlerOptions struct {
	Level slog.Leveler
	// Color enables ANSI colors for the level and attribute keys.
	Color bool
}

// Handler writes one line per record:
//
//	15:04:05 INFO message key=value key=value
type Handler struct {
	w      io.Writer
	opts   HandlerOptions
	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string // group prefix for attrs added after WithGroup
}

func NewHandler(w io.Writer, opts *HandlerOptions) *Handler {
	h := &Handler{w: w, mu: &sync.Mutex{}}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	return h
}

// Setup installs the handler as the process-wide default logger.
func Setup(debug bool, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(NewHandler(w, &HandlerOptions{Level: level, Color: !color.NoColor}))
	slog.SetDefault(logger)
	return logger
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) paint(c *color.Color, s string) string {
	if !h.opts.Color {
		return s
	}
	return c.Sprint(s)
}

func (h *Handler) levelLabel(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return h.paint(errorColor, "ERROR")
	case l >= slog.LevelWarn:
		return h.paint(warnColor, "WARN")
	case l >= slog.LevelInfo:
		return h.paint(infoColor, "INFO")
	default:
		return h.paint(debugColor, "DEBUG")
	}
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	b.WriteString(ts.Format("15:04:05"))
	b.WriteByte(' ')
	b.WriteString(h.levelLabel(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&b, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&b, h.prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *Handler) appendAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(b, p, ga)
		}
		return
	}

	val := a.Value.String()
	if a.Value.Kind() == slog.KindDuration {
		val = a.Value.Duration().String()
	}
	if val == "" || strings.ContainsAny(val, " \t\"=") {
		val = fmt.Sprintf("%q", val)
	}
	b.WriteByte(' ')
	b.WriteString(h.paint(keyColor, prefix+a.Key+"="))
	b.WriteString(val)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}
