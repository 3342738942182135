package trust

import (
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrUntrustedValue = NewError("unsafe",
		"attempting to use an unsafe value in a safe context")
	ErrInsecureURL = NewError("insecurl",
		"blocked loading resource from url not allowed by policy")
	ErrUnknownContext = NewError("itype",
		"unknown trusted context")
)

// Error is a policy failure identified by a short code. It implements both
// error and slog.LogValuer.
type Error struct {
	base  *Error
	err   error
	code  string
	msg   string
	attrs []slog.Attr
}

// NewError creates a new sentinel Error.
func NewError(code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

// Code returns the short identifier of the failure.
func (e *Error) Code() string { return e.code }

// Error implements the error interface as "[$sce:<code>] <msg>: <cause>".
func (e *Error) Error() string {
	var sb strings.Builder

	if e.code != "" {
		sb.WriteString("[$sce:" + e.code + "] ")
	}

	sb.WriteString(e.msg)

	if e.err != nil {
		sb.WriteString(": " + e.err.Error())
	}

	return sb.String()
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
		slog.String("error", e.msg))

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping err.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		base:  e.root(),
		err:   err,
		code:  e.code,
		msg:   e.msg,
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
		err:   e.err,
		code:  e.code,
		msg:   e.msg,
		attrs: newAttrs,
	}
}
