package eval

import (
	"maps"

	"github.com/ardnew/interp/log"
)

// Options control how a single expression is compiled and evaluated.
type Options struct {
	// ResolveAsync replaces futures with their settled values.
	ResolveAsync bool
	// LogWarnings logs a warning the first time an expression meets a future.
	LogWarnings bool
}

// Option configures an [Engine].
type Option func(*Engine)

// WithAsyncMode sets the engine's default [Options.ResolveAsync].
func WithAsyncMode(enabled bool) Option {
	return func(e *Engine) { e.async = enabled }
}

// WithLogWarnings sets the engine's default [Options.LogWarnings].
func WithLogWarnings(enabled bool) Option {
	return func(e *Engine) { e.warn = enabled }
}

// WithLogger sets the logger used for warnings and trace output.
func WithLogger(logger log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithProcessEnv sets the variables visible to the env() built-in as
// "KEY=VALUE" entries. The process environment is used when unset.
func WithProcessEnv(entries ...string) Option {
	return func(e *Engine) {
		e.processEnv = buildProcessEnvMap(append([]string{}, entries...))
	}
}

// WithBuiltins adds or replaces built-in names visible to every map context.
func WithBuiltins(builtins map[string]any) Option {
	return func(e *Engine) {
		if e.extra == nil {
			e.extra = make(map[string]any, len(builtins))
		}

		maps.Copy(e.extra, builtins)
	}
}

func applyOptions(e *Engine, opts ...Option) {
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
}
