package eval

import (
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"

	"github.com/ardnew/interp/log"
)

// Engine compiles expressions. Compiled expressions are cached by source
// and options, so compiling the same text twice returns the same
// [Expression].
//
// An Engine is safe for concurrent use.
type Engine struct {
	logger     log.Logger
	processEnv map[string]string
	extra      map[string]any
	builtins   map[string]any
	cache      sync.Map // cacheKey -> *cacheEntry
	mu         sync.RWMutex
	async      bool
	warn       bool
}

type cacheEntry struct {
	expr *Expression
	err  error
	once sync.Once
}

// NewEngine returns an Engine with async resolution disabled and promise
// warnings enabled.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger: log.Default(),
		warn:   true,
	}

	applyOptions(e, opts...)

	if e.processEnv == nil {
		e.processEnv = buildProcessEnvMap(nil)
	}

	e.builtins = makeBuiltins(e.processEnv, e.extra)

	return e
}

// AsyncMode reports whether expressions compiled with [Engine.Compile]
// resolve futures.
func (e *Engine) AsyncMode() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.async
}

// SetAsyncMode changes the default used by subsequent calls to
// [Engine.Compile]. Expressions compiled earlier keep their options.
func (e *Engine) SetAsyncMode(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.async = enabled
}

// LogWarnings reports whether expressions compiled with [Engine.Compile]
// warn when they meet a future.
func (e *Engine) LogWarnings() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.warn
}

// SetLogWarnings changes the default used by subsequent calls to
// [Engine.Compile].
func (e *Engine) SetLogWarnings(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.warn = enabled
}

// Options returns the engine's current defaults.
func (e *Engine) Options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return Options{ResolveAsync: e.async, LogWarnings: e.warn}
}

// Builtins returns the names visible to every map context.
func (e *Engine) Builtins() []string {
	keys := make([]string, 0, len(e.builtins))
	for k := range e.builtins {
		keys = append(keys, k)
	}

	return keys
}

// Compile compiles source using the engine's current defaults.
func (e *Engine) Compile(source string) (*Expression, error) {
	return e.CompileWith(source, e.Options())
}

// CompileWith compiles source with explicit options.
//
// Source that is empty or only whitespace compiles to an expression that
// always evaluates to nil. Calls resolve to expr-lang built-in functions
// (len, get, map, ...) before any context key of the same name.
func (e *Engine) CompileWith(source string, opts Options) (*Expression, error) {
	key := cacheKey(source, opts)

	value, hit := e.cache.LoadOrStore(key, new(cacheEntry))
	entry := value.(*cacheEntry)

	entry.once.Do(func() {
		entry.expr, entry.err = e.compile(source, opts)
	})

	e.logger.Trace(
		"compile expression",
		slog.String("source", source),
		slog.Bool("cache_hit", hit),
		slog.Bool("resolve_async", opts.ResolveAsync),
	)

	return entry.expr, entry.err
}

// ClearCache discards all cached expressions.
func (e *Engine) ClearCache() {
	e.cache.Clear()
}

func (e *Engine) compile(source string, opts Options) (*Expression, error) {
	x := &Expression{
		engine: e,
		source: source,
		opts:   opts,
	}

	if strings.TrimSpace(source) == "" {
		return x, nil
	}

	refs := &identCollector{seen: make(map[string]struct{})}

	program, err := expr.Compile(source, expr.Patch(refs))
	if err != nil {
		return nil, ErrCompile.Wrap(err).
			With(slog.String("source", source))
	}

	x.program = program
	x.refs = refs.names

	return x, nil
}

func cacheKey(source string, opts Options) string {
	return strconv.FormatBool(opts.ResolveAsync) + ":" +
		strconv.FormatBool(opts.LogWarnings) + ":" + source
}

// identCollector records every identifier an expression references, in
// order of first appearance. It never modifies the tree.
type identCollector struct {
	seen  map[string]struct{}
	names []string
}

// Visit implements ast.Visitor.
func (c *identCollector) Visit(node *ast.Node) {
	ident, ok := (*node).(*ast.IdentifierNode)
	if !ok {
		return
	}

	if _, dup := c.seen[ident.Value]; dup {
		return
	}

	c.seen[ident.Value] = struct{}{}
	c.names = append(c.names, ident.Value)
}
