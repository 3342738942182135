package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// ANSI color codes for pretty printing.
const (
	colorReset   = "\033[0m"
	colorGray    = "\033[90m"
	colorRed     = "\033[31m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorBlue    = "\033[34m"
	colorMagenta = "\033[35m"
	colorCyan    = "\033[36m"
)

// prettyBase holds the state shared by both pretty handlers: options, the
// output lock, and attributes/groups accumulated through WithAttrs and
// WithGroup.
type prettyBase struct {
	opts   slog.HandlerOptions
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr
	prefix string
}

func newPrettyBase(w io.Writer, opts *slog.HandlerOptions) prettyBase {
	return prettyBase{opts: *opts, mu: &sync.Mutex{}, w: w}
}

func (b prettyBase) enabled(level slog.Level) bool {
	threshold := slog.LevelInfo
	if b.opts.Level != nil {
		threshold = b.opts.Level.Level()
	}

	return level >= threshold
}

func (b prettyBase) withAttrs(attrs []slog.Attr) prettyBase {
	for _, a := range attrs {
		a.Key = b.prefix + a.Key
		b.attrs = append(b.attrs[:len(b.attrs):len(b.attrs)], a)
	}

	return b
}

func (b prettyBase) withGroup(name string) prettyBase {
	if name != "" {
		b.prefix += name + "."
	}

	return b
}

// builtins returns the time, level, source and message attributes of r after
// ReplaceAttr has been applied, dropping any that were replaced with empty.
// The level keeps its slog.Level value so it can be colored by severity.
func (b prettyBase) builtins(r slog.Record) []slog.Attr {
	out := make([]slog.Attr, 0, 4)

	if !r.Time.IsZero() {
		out = append(out, slog.Time(slog.TimeKey, r.Time))
	}

	out = append(out, slog.Any(slog.LevelKey, r.Level))

	if b.opts.AddSource {
		if src := r.Source(); src != nil {
			out = append(out, slog.String(
				slog.SourceKey, src.File+":"+strconv.Itoa(src.Line),
			))
		}
	}

	out = append(out, slog.String(slog.MessageKey, r.Message))

	if b.opts.ReplaceAttr == nil {
		return out
	}

	kept := out[:0]

	for _, a := range out {
		if a.Key == slog.LevelKey {
			kept = append(kept, a)

			continue
		}

		if a = b.opts.ReplaceAttr(nil, a); a.Key != "" {
			kept = append(kept, a)
		}
	}

	return kept
}

// record collects every attribute of r in output order.
func (b prettyBase) record(r slog.Record) []slog.Attr {
	all := append(b.builtins(r), b.attrs...)

	r.Attrs(func(a slog.Attr) bool {
		a.Key = b.prefix + a.Key
		all = append(all, a)

		return true
	})

	return all
}

func (b prettyBase) write(buf *bytes.Buffer) error {
	buf.WriteByte('\n')

	b.mu.Lock()
	defer b.mu.Unlock()

	_, err := b.w.Write(buf.Bytes())

	return err
}

// prettyTextHandler writes unquoted key=value pairs with colored keys and
// values.
type prettyTextHandler struct{ prettyBase }

func newPrettyTextHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyTextHandler {
	return &prettyTextHandler{newPrettyBase(w, opts)}
}

func (h *prettyTextHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyTextHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	for _, a := range h.record(r) {
		writeTextAttr(buf, a)
	}

	return h.write(buf)
}

func (h *prettyTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyTextHandler{h.withAttrs(attrs)}
}

func (h *prettyTextHandler) WithGroup(name string) slog.Handler {
	return &prettyTextHandler{h.withGroup(name)}
}

func writeTextAttr(buf *bytes.Buffer, a slog.Attr) {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			if a.Key != "" {
				ga.Key = a.Key + "." + ga.Key
			}

			writeTextAttr(buf, ga)
		}

		return
	}

	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}

	buf.WriteString(colorGray)
	buf.WriteString(a.Key)
	buf.WriteString(colorReset)
	buf.WriteByte('=')
	writeColored(buf, a.Value)
}

// prettyJSONHandler writes one indented, colored JSON-like object per record.
type prettyJSONHandler struct{ prettyBase }

func newPrettyJSONHandler(
	w io.Writer,
	opts *slog.HandlerOptions,
) *prettyJSONHandler {
	return &prettyJSONHandler{newPrettyBase(w, opts)}
}

func (h *prettyJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.enabled(level)
}

func (h *prettyJSONHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)
	buf.WriteString("{\n")
	writeJSONAttrs(buf, h.record(r), 1)
	buf.WriteString("\n}")

	return h.write(buf)
}

func (h *prettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &prettyJSONHandler{h.withAttrs(attrs)}
}

func (h *prettyJSONHandler) WithGroup(name string) slog.Handler {
	return &prettyJSONHandler{h.withGroup(name)}
}

func writeJSONAttrs(buf *bytes.Buffer, attrs []slog.Attr, depth int) {
	indent := strings.Repeat("  ", depth)

	for i, a := range attrs {
		if i > 0 {
			buf.WriteString(",\n")
		}

		a.Value = a.Value.Resolve()

		buf.WriteString(indent)
		buf.WriteString(colorGray)
		buf.WriteString(a.Key)
		buf.WriteString(colorReset)
		buf.WriteString(": ")

		if a.Value.Kind() == slog.KindGroup {
			buf.WriteString("{\n")
			writeJSONAttrs(buf, a.Value.Group(), depth+1)
			buf.WriteString("\n" + indent + "}")

			continue
		}

		writeColored(buf, a.Value)
	}
}

// writeColored writes v unquoted in a color chosen by its kind.
func writeColored(buf *bytes.Buffer, v slog.Value) {
	color, text := colorCyan, ""

	switch v.Kind() {
	case slog.KindString:
		text = v.String()

	case slog.KindInt64:
		color, text = colorYellow, strconv.FormatInt(v.Int64(), 10)

	case slog.KindUint64:
		color, text = colorYellow, strconv.FormatUint(v.Uint64(), 10)

	case slog.KindFloat64:
		color, text = colorYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64)

	case slog.KindBool:
		color, text = colorRed, "false"
		if v.Bool() {
			color, text = colorGreen, "true"
		}

	case slog.KindDuration:
		color, text = colorMagenta, v.Duration().String()

	case slog.KindTime:
		color, text = colorBlue, v.Time().String()

	case slog.KindAny:
		switch val := v.Any().(type) {
		case slog.Level:
			color, text = levelColor(val), strings.ToUpper(Level(val).String())

		case nil:
			color, text = colorGray, "null"

		case error:
			color, text = colorRed, val.Error()

		default:
			text = fmt.Sprint(val)
		}

	default:
		text = v.String()
	}

	buf.WriteString(color)
	buf.WriteString(text)
	buf.WriteString(colorReset)
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorBlue
	}
}
