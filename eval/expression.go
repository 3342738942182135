package eval

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/expr-lang/expr/vm"
)

// Expression is a compiled expression.
type Expression struct {
	engine  *Engine
	program *vm.Program
	source  string
	refs    []string
	warned  sync.Once
	opts    Options
}

// Source returns the text the expression was compiled from.
func (x *Expression) Source() string { return x.source }

// Options returns the options the expression was compiled with.
func (x *Expression) Options() Options { return x.opts }

// Identifiers returns the names the expression references, in order of
// first appearance.
func (x *Expression) Identifiers() []string { return slices.Clone(x.refs) }

// Eval evaluates the expression against ctx.
//
// A map[string]any context (or nil) sees the built-in helpers beneath its
// own keys. Any other context is passed to the expression unchanged.
// Context keys cannot shadow expr-lang built-in functions.
func (x *Expression) Eval(ctx any) (result any, err error) {
	if x.program == nil {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = ErrEvaluate.Wrap(fmt.Errorf("%v", r)).
				With(slog.String("source", x.source))
		}
	}()

	var s *settler
	if x.opts.ResolveAsync {
		s = &settler{found: x.warnFuture}
		ctx, _ = s.settle(ctx, 0)
	}

	result, err = vm.Run(x.program, x.engine.env(ctx))
	if err != nil {
		return nil, ErrEvaluate.Wrap(err).
			With(slog.String("source", x.source))
	}

	if s != nil {
		result, _ = s.settle(result, 0)
	}

	return result, nil
}

func (x *Expression) warnFuture() {
	if !x.opts.LogWarnings {
		return
	}

	x.warned.Do(func() {
		x.engine.logger.Warn(
			"future found in expression; automatic unwrapping is deprecated",
			slog.String("source", x.source),
		)
	})
}

func (e *Engine) env(ctx any) any {
	switch c := ctx.(type) {
	case nil:
		return maps.Clone(e.builtins)
	case map[string]any:
		env := maps.Clone(e.builtins)
		maps.Copy(env, c)

		return env
	default:
		return ctx
	}
}
