package interp

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/valyala/fasttemplate"

	"github.com/ardnew/interp/eval"
)

// Predefined errors (sentinel values).
var (
	ErrNoConcatenation = NewError("noconcat",
		"Error while interpolating: {0}\n"+
			"Strict Contextual Escaping disallows interpolations that "+
			"concatenate multiple expressions when a trusted value is required.")
	ErrInterpolation = NewError("interr",
		"Can't interpolate: {0}\n{1}")
)

// Error is an interpolation failure identified by a short code. Its message
// is a format with positional placeholders ({0}, {1}, ...) filled by
// [Error.WithArgs].
//
// Error implements both error and slog.LogValuer. Errors derived from a
// sentinel match it with errors.Is.
type Error struct {
	base   *Error
	err    error
	code   string
	format string
	args   []string
	attrs  []slog.Attr
}

// NewError creates a new sentinel Error.
func NewError(code, format string) *Error {
	return &Error{code: code, format: format}
}

// Code returns the short identifier of the failure.
func (e *Error) Code() string { return e.code }

// Message returns the formatted message without the code prefix.
func (e *Error) Message() string {
	return fasttemplate.ExecuteFuncString(e.format, "{", "}",
		func(w io.Writer, tag string) (int, error) {
			i, err := strconv.Atoi(tag)
			if err != nil || i < 0 || i >= len(e.args) {
				return io.WriteString(w, "{"+tag+"}")
			}

			return io.WriteString(w, e.args[i])
		})
}

// Error implements the error interface as "[$interpolate:<code>] <message>".
func (e *Error) Error() string {
	return "[$interpolate:" + e.code + "] " + e.Message()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || (e.base != nil && e.base == t.root())
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// LogValue implements slog.LogValuer.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+3)
	attrs = append(attrs,
		slog.String("code", e.code),
		slog.String("error", e.Message()))

	if e.err != nil {
		attrs = append(attrs, slog.Any("cause", e.err))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap returns a copy of e with err as its cause.
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err

	return c
}

// WithArgs returns a copy of e whose placeholders are filled by args.
// Strings are used as is, nil as "undefined", and anything else as JSON.
func (e *Error) WithArgs(args ...any) *Error {
	c := e.clone()
	c.args = make([]string, len(args))

	for i, arg := range args {
		c.args[i] = stringify(arg)
	}

	return c
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.clone()
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return c
}

func (e *Error) clone() *Error {
	return &Error{
		base:   e.root(),
		err:    e.err,
		code:   e.code,
		format: e.format,
		args:   e.args,
		attrs:  e.attrs,
	}
}

func stringify(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "undefined"
	case string:
		return v
	case error:
		return v.Error()
	}

	text, err := eval.JSON(arg)
	if err != nil {
		return err.Error()
	}

	return text
}
