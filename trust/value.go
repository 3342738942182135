package trust

import "github.com/goccy/go-json"

// Value is text marked as trusted for a single context.
type Value struct {
	text string
	ctx  Context
}

// As marks text as trusted for ctx.
func As(ctx Context, text string) *Value {
	return &Value{text: text, ctx: ctx}
}

// Context returns the context v is trusted for.
func (v *Value) Context() Context { return v.ctx }

// String returns the wrapped text.
func (v *Value) String() string { return v.text }

// MarshalJSON encodes the wrapped text as a JSON string.
func (v *Value) MarshalJSON() ([]byte, error) {
	return json.MarshalNoEscape(v.text)
}

// satisfies reports whether v may be used where want is required.
func (v *Value) satisfies(want Context) bool {
	return v.ctx == want || (v.ctx == ResourceURL && want == URL)
}

// Unwrap returns the text of a trusted [Value], or value itself otherwise.
func Unwrap(value any) any {
	if v, ok := value.(*Value); ok && v != nil {
		return v.text
	}

	return value
}
