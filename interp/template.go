package interp

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/interp/eval"
	"github.com/ardnew/interp/trust"
)

// Template is a compiled template. It is immutable and safe for concurrent
// use.
type Template struct {
	policy   trust.Policy
	sink     ErrorSink
	source   string
	segments []Segment
	trusted  trust.Context
	hasExpr  bool
}

// Source returns the text the template was compiled from.
func (t *Template) Source() string { return t.source }

// Segments returns a copy of the template's segments in order.
func (t *Template) Segments() []Segment { return slices.Clone(t.segments) }

// HasExpression reports whether the template contains an expression.
func (t *Template) HasExpression() bool { return t.hasExpr }

// Trusted returns the trust context the template was compiled for.
func (t *Template) Trusted() trust.Context { return t.trusted }

// Expressions returns the source of each expression segment in order.
func (t *Template) Expressions() []string {
	var src []string

	for _, s := range t.segments {
		if s.IsExpression() {
			src = append(src, s.Text)
		}
	}

	return src
}

// Render evaluates the template against ctx. On failure the error is
// reported to the template's [ErrorSink] and Render returns "", false.
func (t *Template) Render(ctx any) (string, bool) {
	out, err := t.Evaluate(ctx)
	if err != nil {
		t.sink.Report(err)

		return "", false
	}

	return out, true
}

// Evaluate is like [Template.Render] but returns the error instead of
// reporting it. Errors are always an [ErrInterpolation].
func (t *Template) Evaluate(ctx any) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", t.fail(fmt.Errorf("%v", r))
		}
	}()

	var sb strings.Builder

	for _, seg := range t.segments {
		if !seg.IsExpression() {
			sb.WriteString(seg.Text)

			continue
		}

		text, err := t.eval(seg, ctx)
		if err != nil {
			return "", t.fail(err)
		}

		sb.WriteString(text)
	}

	return sb.String(), nil
}

func (t *Template) eval(seg Segment, ctx any) (string, error) {
	value, err := seg.Expr.Eval(ctx)
	if err != nil {
		return "", err
	}

	if t.trusted != trust.None {
		value, err = t.policy.GetTrusted(t.trusted, value)
		if err != nil {
			return "", err
		}
	} else {
		value = t.policy.Unwrap(value)
	}

	return coerce(value)
}

func (t *Template) fail(err error) *Error {
	return ErrInterpolation.Wrap(err).
		WithArgs(t.source, err.Error()).
		With(slog.String("template", t.source))
}

// coerce converts an evaluated value to text: nil is empty, strings are
// used as is, and anything else is encoded as JSON.
func coerce(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}

	text, err := eval.JSON(value)
	if err != nil {
		return "", err
	}

	if text == "null" {
		return "", nil
	}

	return text, nil
}
