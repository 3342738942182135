// Package interp compiles interpolation templates.
//
// A template is text with embedded expressions:
//
//	Hello {{user.name}}, you have {{len(messages)}} new messages.
//
// [Interpolator.Compile] splits the text into literal and expression
// segments once. The returned [Template] renders them against any number of
// contexts.
//
// Expressions between the secondary markers (default "{||" and "||}") are
// deferred: futures they reference are replaced by their settled values
// before the expression is evaluated.
//
// Compilation errors are returned to the caller. Rendering never fails
// loudly: errors are reported to an [ErrorSink] and [Template.Render]
// reports false.
package interp
