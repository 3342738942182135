// Package eval compiles and evaluates the expressions embedded in
// interpolation templates.
//
// Expressions use the [expr] language. An expression is compiled once by an
// [Engine] and may be evaluated any number of times against a context value,
// typically a map[string]any. Names missing from the context evaluate to nil.
//
// Map contexts are layered over a small set of built-in helpers (env, path,
// file, mung, json). Keys in the context shadow built-ins of the same name.
//
// An expression compiled with [Options.ResolveAsync] replaces any [Future]
// it meets, in the context or the result, with its settled value. A pending
// or rejected future reads as nil.
//
// [expr]: https://expr-lang.org
package eval
