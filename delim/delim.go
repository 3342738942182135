// Package delim holds the marker strings that delimit expressions in an
// interpolated template.
//
// Two pairs are configured: the primary pair (default "{{" and "}}") marks
// ordinary expressions, and the secondary pair (default "{||" and "||}")
// marks expressions whose asynchronous values are resolved before they are
// rendered.
//
// A Config is meant to be adjusted during setup and then handed to the
// template compiler, which takes a snapshot of it. Changing a Config after
// that has no effect on compilers (or templates) created from it.
package delim

// Default marker strings.
const (
	DefaultPrimaryStart   = "{{"
	DefaultPrimaryEnd     = "}}"
	DefaultSecondaryStart = "{||"
	DefaultSecondaryEnd   = "||}"
)

// Config holds the four delimiter strings. The zero value is ready to use and
// reports the defaults.
//
// Setters ignore empty arguments, so a Config never holds an empty marker.
// Overlapping markers (for example a primary start that is a prefix of the
// secondary start) are accepted; the resulting scan behavior is whatever the
// compiler's left-to-right search produces.
type Config struct {
	primaryStart   string
	primaryEnd     string
	secondaryStart string
	secondaryEnd   string
}

// Default returns a Config holding the default markers.
func Default() Config {
	return Config{
		primaryStart:   DefaultPrimaryStart,
		primaryEnd:     DefaultPrimaryEnd,
		secondaryStart: DefaultSecondaryStart,
		secondaryEnd:   DefaultSecondaryEnd,
	}
}

// New returns a Config with the given markers. Empty arguments keep the
// corresponding default.
func New(primaryStart, primaryEnd, secondaryStart, secondaryEnd string) Config {
	var c Config

	c.SetPrimaryStart(primaryStart)
	c.SetPrimaryEnd(primaryEnd)
	c.SetSecondaryStart(secondaryStart)
	c.SetSecondaryEnd(secondaryEnd)

	return c
}

// PrimaryStart returns the marker that opens an expression.
func (c *Config) PrimaryStart() string { return or(c.primaryStart, DefaultPrimaryStart) }

// PrimaryEnd returns the marker that closes an expression.
func (c *Config) PrimaryEnd() string { return or(c.primaryEnd, DefaultPrimaryEnd) }

// SecondaryStart returns the marker that opens a deferred expression.
func (c *Config) SecondaryStart() string { return or(c.secondaryStart, DefaultSecondaryStart) }

// SecondaryEnd returns the marker that closes a deferred expression.
func (c *Config) SecondaryEnd() string { return or(c.secondaryEnd, DefaultSecondaryEnd) }

// SetPrimaryStart sets the marker that opens an expression and returns the
// effective value. An empty value leaves the marker unchanged.
func (c *Config) SetPrimaryStart(value string) string {
	return set(&c.primaryStart, value, DefaultPrimaryStart)
}

// SetPrimaryEnd sets the marker that closes an expression and returns the
// effective value. An empty value leaves the marker unchanged.
func (c *Config) SetPrimaryEnd(value string) string {
	return set(&c.primaryEnd, value, DefaultPrimaryEnd)
}

// SetSecondaryStart sets the marker that opens a deferred expression and
// returns the effective value. An empty value leaves the marker unchanged.
func (c *Config) SetSecondaryStart(value string) string {
	return set(&c.secondaryStart, value, DefaultSecondaryStart)
}

// SetSecondaryEnd sets the marker that closes a deferred expression and
// returns the effective value. An empty value leaves the marker unchanged.
func (c *Config) SetSecondaryEnd(value string) string {
	return set(&c.secondaryEnd, value, DefaultSecondaryEnd)
}

// Pair is one start/end marker pair.
type Pair struct {
	Start string
	End   string
}

// Primary returns the primary marker pair.
func (c *Config) Primary() Pair {
	return Pair{Start: c.PrimaryStart(), End: c.PrimaryEnd()}
}

// Secondary returns the secondary marker pair.
func (c *Config) Secondary() Pair {
	return Pair{Start: c.SecondaryStart(), End: c.SecondaryEnd()}
}

// Snapshot returns a copy of c with every marker resolved to its effective
// value. Later changes to c do not affect the copy.
func (c *Config) Snapshot() Config {
	return Config{
		primaryStart:   c.PrimaryStart(),
		primaryEnd:     c.PrimaryEnd(),
		secondaryStart: c.SecondaryStart(),
		secondaryEnd:   c.SecondaryEnd(),
	}
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func set(field *string, value, fallback string) string {
	if value != "" {
		*field = value
	}

	return or(*field, fallback)
}
