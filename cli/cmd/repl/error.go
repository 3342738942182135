package repl

import "errors"

// Sentinel errors.
var (
	ErrOutOfBounds = errors.New("index out of range")
	ErrNoCompiler  = errors.New("no interpolator configured")
)
