package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiGreen  = "\033[32m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// PrettyHandler writes records as
//
//	15:04:05 INF message component=engine key=value
//
// with the level tag coloured and the component, when present, pulled to the
// front of the attribute list.
type PrettyHandler struct {
	level  slog.Leveler
	mu     *sync.Mutex
	w      io.Writer
	prefix string
	attrs  []slog.Attr
}

func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	h := &PrettyHandler{w: w, mu: &sync.Mutex{}, level: slog.LevelInfo}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}
	return h
}

func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(ansiGray)
	b.WriteString(r.Time.Format(time.TimeOnly))
	b.WriteString(ansiReset)
	b.WriteByte(' ')
	b.WriteString(levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	attrs := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	attrs = append(attrs, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, h.qualify(a))
		return true
	})
	for i, a := range attrs {
		if a.Key == "component" && i > 0 {
			copy(attrs[1:i+1], attrs[:i])
			attrs[0] = a
			break
		}
	}
	if len(attrs) > 0 {
		b.WriteString(ansiCyan)
		for _, a := range attrs {
			b.WriteByte(' ')
			writeAttr(&b, a)
		}
		b.WriteString(ansiReset)
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, h.qualify(a))
	}
	return &next
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *PrettyHandler) qualify(a slog.Attr) slog.Attr {
	if h.prefix == "" {
		return a
	}
	return slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return ansiRed + "ERR" + ansiReset
	case level >= slog.LevelWarn:
		return ansiYellow + "WRN" + ansiReset
	case level >= slog.LevelInfo:
		return ansiGreen + "INF" + ansiReset
	default:
		return ansiDim + "DBG" + ansiReset
	}
}

func writeAttr(b *strings.Builder, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		for i, ga := range v.Group() {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeAttr(b, slog.Attr{Key: a.Key + "." + ga.Key, Value: ga.Value})
		}
		return
	}
	b.WriteString(a.Key)
	b.WriteByte('=')
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	default:
		s = fmt.Sprint(v.Any())
	}
	if strings.ContainsAny(s, " \t\n\"") {
		s = fmt.Sprintf("%q", s)
	}
	b.WriteString(s)
}
