package eval

import (
	"errors"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrCompile  = NewError("expression compilation failed")
	ErrEvaluate = NewError("expression evaluation failed")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer.
//
// Errors derived from a sentinel with Wrap or With match it with errors.Is.
type Error struct {
	base  *Error
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates a new sentinel Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// Error implements the error interface as "<msg>: <cause>", omitting
// whichever part is empty.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
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

// Attrs returns the structured attributes attached to e.
func (e *Error) Attrs() []slog.Attr { return e.attrs }

// LogValue implements slog.LogValuer for structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping err.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		base:  e.root(),
		msg:   e.msg,
		err:   err,
		attrs: e.attrs,
	}
}

// With returns a copy of e with attrs appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		base:  e.root(),
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// WrapError converts err to an *Error, returning it unchanged when it
// already is one.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}
