// Package trust decides whether a value produced by an interpolation may be
// used where a trusted value is required.
//
// A [Context] names the kind of trust required (HTML, URL, and so on).
// Callers mark values as trusted for a context with [As]. A [Policy] checks
// values against a context: [Strict] enforces the rules, [Passthrough]
// accepts everything.
package trust
