package interp

import (
	"log/slog"
	"strings"

	"github.com/ardnew/interp/delim"
	"github.com/ardnew/interp/eval"
	"github.com/ardnew/interp/log"
	"github.com/ardnew/interp/trust"
)

// deferredOptions compile expressions found between the secondary markers.
var deferredOptions = eval.Options{ResolveAsync: true, LogWarnings: false}

// Interpolator compiles templates using a fixed set of delimiters, an
// expression engine, and a trust policy. It is safe for concurrent use.
type Interpolator struct {
	engine *eval.Engine
	policy trust.Policy
	sink   ErrorSink
	logger log.Logger
	delims delim.Config
}

// Option configures an [Interpolator].
type Option func(*Interpolator)

// WithDelimiters sets the delimiter markers. The Interpolator keeps a
// snapshot, so later changes to cfg have no effect.
func WithDelimiters(cfg delim.Config) Option {
	return func(ip *Interpolator) { ip.delims = cfg.Snapshot() }
}

// WithEngine sets the expression engine.
func WithEngine(engine *eval.Engine) Option {
	return func(ip *Interpolator) { ip.engine = engine }
}

// WithTrustPolicy sets the policy applied to templates compiled for a
// trust context. The default is a strict policy.
func WithTrustPolicy(policy trust.Policy) Option {
	return func(ip *Interpolator) { ip.policy = policy }
}

// WithErrorSink sets where render errors are reported. The default logs
// them.
func WithErrorSink(sink ErrorSink) Option {
	return func(ip *Interpolator) { ip.sink = sink }
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(ip *Interpolator) { ip.logger = logger }
}

// New returns an Interpolator configured by opts.
func New(opts ...Option) *Interpolator {
	ip := &Interpolator{
		logger: log.Default(),
		delims: delim.Default(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(ip)
		}
	}

	if ip.engine == nil {
		ip.engine = eval.NewEngine(eval.WithLogger(ip.logger))
	}

	if ip.policy == nil {
		ip.policy = trust.NewStrict()
	}

	if ip.sink == nil {
		ip.sink = LogSink(ip.logger)
	}

	return ip
}

// StartSymbol returns the marker that opens an expression.
func (ip *Interpolator) StartSymbol() string { return ip.delims.PrimaryStart() }

// EndSymbol returns the marker that closes an expression.
func (ip *Interpolator) EndSymbol() string { return ip.delims.PrimaryEnd() }

// UnwrapStartSymbol returns the marker that opens a deferred expression.
func (ip *Interpolator) UnwrapStartSymbol() string { return ip.delims.SecondaryStart() }

// UnwrapEndSymbol returns the marker that closes a deferred expression.
func (ip *Interpolator) UnwrapEndSymbol() string { return ip.delims.SecondaryEnd() }

// Delimiters returns the markers in use.
func (ip *Interpolator) Delimiters() delim.Config { return ip.delims }

// Engine returns the expression engine.
func (ip *Interpolator) Engine() *eval.Engine { return ip.engine }

// Compile splits text into literal and expression segments.
//
// Text outside the primary markers is scanned again for the secondary
// markers; expressions found there are deferred. Text inside the primary
// markers is handed to the expression engine as is.
//
// If mustHaveExpression is set and text contains no expression, Compile
// returns a nil Template and a nil error.
//
// If trusted is not [trust.None], the template must consist of a single
// segment, otherwise Compile fails with [ErrNoConcatenation]. Each
// rendered value is then checked by the trust policy.
func (ip *Interpolator) Compile(
	text string,
	mustHaveExpression bool,
	trusted trust.Context,
) (*Template, error) {
	c := scanner{ip: ip}

	if err := c.scan(text); err != nil {
		return nil, eval.WrapError(err).With(slog.String("template", text))
	}

	if len(c.segments) == 0 {
		c.segments = append(c.segments, Segment{Kind: SegmentLiteral})
	}

	if trusted != trust.None && len(c.segments) > 1 {
		return nil, ErrNoConcatenation.WithArgs(text).
			With(slog.String("context", trusted.String()))
	}

	ip.logger.Trace(
		"compile template",
		slog.String("template", text),
		slog.Int("segments", len(c.segments)),
		slog.Bool("has_expression", c.hasExpr),
	)

	if mustHaveExpression && !c.hasExpr {
		return nil, nil //nolint:nilnil
	}

	return &Template{
		policy:   ip.policy,
		sink:     ip.sink,
		source:   text,
		segments: c.segments,
		trusted:  trusted,
		hasExpr:  c.hasExpr,
	}, nil
}

// scanner accumulates the segments of one template.
type scanner struct {
	ip       *Interpolator
	segments []Segment
	hasExpr  bool
}

// scan splits text on the primary markers.
func (c *scanner) scan(text string) error {
	pair := c.ip.delims.Primary()

	for index := 0; index < len(text); {
		start, end, ok := find(text, pair, index)
		if !ok {
			return c.scanLiteral(text[index:])
		}

		if index != start {
			if err := c.scanLiteral(text[index:start]); err != nil {
				return err
			}
		}

		err := c.expression(text[start+len(pair.Start):end], false)
		if err != nil {
			return err
		}

		index = end + len(pair.End)
	}

	return nil
}

// scanLiteral splits a chunk of literal text on the secondary markers.
func (c *scanner) scanLiteral(chunk string) error {
	pair := c.ip.delims.Secondary()

	for index := 0; index < len(chunk); {
		start, end, ok := find(chunk, pair, index)
		if !ok {
			c.literal(chunk[index:])

			return nil
		}

		if index != start {
			c.literal(chunk[index:start])
		}

		err := c.expression(chunk[start+len(pair.Start):end], true)
		if err != nil {
			return err
		}

		index = end + len(pair.End)
	}

	return nil
}

func (c *scanner) literal(text string) {
	if text != "" {
		c.segments = append(c.segments, Segment{Kind: SegmentLiteral, Text: text})
	}
}

func (c *scanner) expression(source string, deferred bool) error {
	var (
		x   *eval.Expression
		err error
	)

	if deferred {
		x, err = c.ip.engine.CompileWith(source, deferredOptions)
	} else {
		x, err = c.ip.engine.Compile(source)
	}

	if err != nil {
		return err
	}

	c.segments = append(c.segments, Segment{
		Kind:     SegmentExpression,
		Text:     source,
		Expr:     x,
		Deferred: deferred,
	})
	c.hasExpr = true

	return nil
}

// find locates the next start marker at or after index and the first end
// marker following it.
func find(text string, pair delim.Pair, index int) (start, end int, ok bool) {
	start = strings.Index(text[index:], pair.Start)
	if start < 0 {
		return 0, 0, false
	}

	start += index

	from := start + len(pair.Start)

	end = strings.Index(text[from:], pair.End)
	if end < 0 {
		return 0, 0, false
	}

	return start, end + from, true
}
