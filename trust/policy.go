package trust

import (
	"fmt"
	"log/slog"
	"net/url"
)

// Policy checks values produced for a trusted context.
type Policy interface {
	// GetTrusted returns value in a form safe for ctx, or an error if the
	// value may not be used there.
	GetTrusted(ctx Context, value any) (any, error)
	// Unwrap strips any trust marking from value.
	Unwrap(value any) any
}

// Sanitizer cleans untrusted HTML.
type Sanitizer interface {
	Sanitize(html string) (string, error)
}

// SanitizerFunc adapts a function to the [Sanitizer] interface.
type SanitizerFunc func(html string) (string, error)

// Sanitize calls f(html).
func (f SanitizerFunc) Sanitize(html string) (string, error) { return f(html) }

// Passthrough is a [Policy] that accepts every value.
type Passthrough struct{}

// GetTrusted returns the unwrapped value.
func (Passthrough) GetTrusted(_ Context, value any) (any, error) {
	return Unwrap(value), nil
}

// Unwrap implements [Policy].
func (Passthrough) Unwrap(value any) any { return Unwrap(value) }

// Strict is a [Policy] that only accepts values marked trusted for the
// required context, with two exceptions: resource URLs matching the allow
// list, and HTML cleaned by the configured sanitizer.
type Strict struct {
	sanitizer Sanitizer
	origin    *url.URL
	allow     []matcher
	block     []matcher
	enabled   bool
}

// StrictOption configures a [Strict] policy.
type StrictOption func(*Strict)

// WithEnabled turns checking on or off. A disabled policy only unwraps.
func WithEnabled(enabled bool) StrictOption {
	return func(s *Strict) { s.enabled = enabled }
}

// WithSanitizer sets the sanitizer applied to plain strings in [HTML].
func WithSanitizer(sanitizer Sanitizer) StrictOption {
	return func(s *Strict) { s.sanitizer = sanitizer }
}

// WithOrigin sets the origin matched by the [Self] pattern. Relative URLs
// always match [Self].
func WithOrigin(origin string) StrictOption {
	return func(s *Strict) {
		u, err := url.Parse(origin)
		if err == nil {
			s.origin = u
		}
	}
}

// WithResourceURLAllowList replaces the patterns a plain string must match
// to be used as a [ResourceURL]. The default list is [Self].
func WithResourceURLAllowList(patterns ...string) StrictOption {
	return func(s *Strict) { s.allow = compileMatchers(patterns) }
}

// WithResourceURLBlockList replaces the patterns that reject a plain string
// used as a [ResourceURL] even when it is allowed. The default list is empty.
func WithResourceURLBlockList(patterns ...string) StrictOption {
	return func(s *Strict) { s.block = compileMatchers(patterns) }
}

// NewStrict returns an enabled strict policy.
func NewStrict(opts ...StrictOption) *Strict {
	s := &Strict{
		allow:   compileMatchers([]string{Self}),
		enabled: true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Enabled reports whether s checks values.
func (s *Strict) Enabled() bool { return s.enabled }

// Unwrap implements [Policy].
func (s *Strict) Unwrap(value any) any { return Unwrap(value) }

// GetTrusted implements [Policy].
func (s *Strict) GetTrusted(ctx Context, value any) (any, error) {
	if !s.enabled || ctx == None {
		return Unwrap(value), nil
	}

	switch v := value.(type) {
	case nil:
		return nil, nil

	case *Value:
		if v == nil {
			return nil, nil
		}

		if v.satisfies(ctx) {
			return v.text, nil
		}

		return nil, ErrUntrustedValue.With(
			slog.String("context", ctx.String()),
			slog.String("marked", v.ctx.String()),
		)

	case string:
		if v == "" {
			return v, nil
		}

		switch ctx {
		case ResourceURL:
			if s.allowed(v) {
				return v, nil
			}

			return nil, ErrInsecureURL.With(slog.String("url", v))

		case HTML:
			if s.sanitizer != nil {
				clean, err := s.sanitizer.Sanitize(v)
				if err != nil {
					return nil, ErrUntrustedValue.Wrap(err).
						With(slog.String("context", ctx.String()))
				}

				return clean, nil
			}
		}
	}

	return nil, ErrUntrustedValue.With(
		slog.String("context", ctx.String()),
		slog.String("type", fmt.Sprintf("%T", value)),
	)
}

func (s *Strict) allowed(raw string) bool {
	return matchAny(s.allow, raw, s.origin) && !matchAny(s.block, raw, s.origin)
}
