package trust

import (
	"iter"
	"log/slog"
	"strings"
)

//go:generate go tool stringer -type=Context -linecomment

// Context identifies the kind of trust a value must carry.
type Context int

// Trust contexts. The zero value requires no trust.
const (
	None        Context = iota // none
	HTML                       // html
	CSS                        // css
	URL                        // url
	ResourceURL                // resourceUrl
	JS                         // js
)

// Contexts returns an iterator over the names of every context that
// requires trust.
func Contexts() iter.Seq[string] {
	return func(yield func(string) bool) {
		for c := HTML; c <= JS; c++ {
			if !yield(c.String()) {
				return
			}
		}
	}
}

// ParseContext returns the context named s, ignoring case. The empty string
// and "none" yield [None].
func ParseContext(s string) (Context, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return None, nil
	}

	for c := None; c <= JS; c++ {
		if strings.EqualFold(name, c.String()) {
			return c, nil
		}
	}

	return None, ErrUnknownContext.With(slog.String("context", s))
}

// MarshalText implements encoding.TextMarshaler.
func (c Context) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Context) UnmarshalText(text []byte) error {
	parsed, err := ParseContext(string(text))
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}
