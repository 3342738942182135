package interp

import "github.com/ardnew/interp/eval"

//go:generate go tool stringer -type=SegmentKind -linecomment

// SegmentKind distinguishes literal text from expressions.
type SegmentKind int

// Segment kinds.
const (
	SegmentLiteral    SegmentKind = iota // literal
	SegmentExpression                    // expression
)

// Segment is one unit of a compiled template.
type Segment struct {
	// Expr is the compiled expression. It is nil for literal segments.
	Expr *eval.Expression
	// Text is the literal text, or the expression source.
	Text string
	Kind SegmentKind
	// Deferred marks expressions found between the secondary markers.
	Deferred bool
}

// IsExpression reports whether s is an expression segment.
func (s Segment) IsExpression() bool { return s.Kind == SegmentExpression }
