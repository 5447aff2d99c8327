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

	"github.com/thoreinstein/hostenv/internal/doctor"
)

// Handler implements slog.Handler for terminal-friendly text output:
//
//	3:04PM INFO  probing runtime binary=php
//
// Levels are coloured when the writer supports it. Attribute values whose
// key or content looks like a credential are masked.
type Handler struct {
	opts   slog.HandlerOptions
	out    io.Writer
	mu     *sync.Mutex
	attrs  []slog.Attr
	prefix string

	useColor   bool
	timeColor  *color.Color
	traceColor *color.Color
	debugColor *color.Color
	infoColor  *color.Color
	warnColor  *color.Color
	errorColor *color.Color
	keyColor   *color.Color
}

// NewHandler creates a new text handler.
func NewHandler(out io.Writer, opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	h := &Handler{
		opts: *opts,
		out:  out,
		mu:   &sync.Mutex{},
	}

	if SupportsColor(out) {
		h.useColor = true
		h.timeColor = color.New(color.FgHiBlack)
		h.traceColor = color.New(color.FgHiBlack)
		h.debugColor = color.New(color.FgMagenta)
		h.infoColor = color.New(color.FgGreen)
		h.warnColor = color.New(color.FgYellow)
		h.errorColor = color.New(color.FgRed, color.Bold)
		h.keyColor = color.New(color.FgCyan)
	}

	return h
}

// Enabled reports whether the handler handles records at the given level.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func levelLabel(l slog.Level) string {
	if l < slog.LevelDebug {
		return "TRACE"
	}
	return l.String()
}

// Handle writes one line for the record.
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	if !r.Time.IsZero() {
		sb.WriteString(h.paint(h.timeColor, r.Time.Format(time.Kitchen)))
		sb.WriteByte(' ')
	}

	label := levelLabel(r.Level)
	if h.useColor {
		var c *color.Color
		switch {
		case r.Level >= slog.LevelError:
			c = h.errorColor
		case r.Level >= slog.LevelWarn:
			c = h.warnColor
		case r.Level >= slog.LevelInfo:
			c = h.infoColor
		case r.Level >= slog.LevelDebug:
			c = h.debugColor
		default:
			c = h.traceColor
		}
		// pad before colouring so escape codes don't count toward the width
		label = c.Sprint(fmt.Sprintf("%-5s", label))
	} else {
		label = fmt.Sprintf("%-5s", label)
	}
	sb.WriteString(label)
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	for _, a := range h.attrs {
		h.appendAttr(&sb, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&sb, h.prefix, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

func (h *Handler) paint(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}

func (h *Handler) appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(sb, groupPrefix, ga)
		}
		return
	}

	value := a.Value.Any()
	if doctor.ShouldMask(a.Key) {
		value = doctor.MaskValue(fmt.Sprint(value))
	} else if s, ok := value.(string); ok && doctor.ContainsTokenPrefix(s) {
		value = doctor.MaskValue(s)
	}

	fmt.Fprintf(sb, " %s=%v", h.paint(h.keyColor, prefix+a.Key), value)
}

// WithAttrs returns a new Handler with the given attributes. They are
// qualified with the current group prefix at this point.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	newH := *h
	newH.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newH.attrs, h.attrs)
	for _, a := range attrs {
		if h.prefix != "" {
			a.Key = h.prefix + a.Key
		}
		newH.attrs = append(newH.attrs, a)
	}
	return &newH
}

// WithGroup returns a new Handler that prefixes subsequent keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newH := *h
	newH.prefix = h.prefix + name + "."
	return &newH
}
