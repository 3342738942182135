package interp

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/ardnew/interp/delim"
	"github.com/ardnew/interp/eval"
	"github.com/ardnew/interp/trust"
)

// recorder is an ErrorSink that keeps every reported error.
type recorder struct {
	mu   sync.Mutex
	errs []error
}

func (r *recorder) Report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.errs = append(r.errs, err)
}

func (r *recorder) last() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.errs) == 0 {
		return nil
	}

	return r.errs[len(r.errs)-1]
}

func newTest(t *testing.T, opts ...Option) (*Interpolator, *recorder) {
	t.Helper()

	rec := &recorder{}
	opts = append([]Option{
		WithEngine(eval.NewEngine(eval.WithProcessEnv())),
		WithErrorSink(rec),
	}, opts...)

	return New(opts...), rec
}

func mustCompile(t *testing.T, ip *Interpolator, text string) *Template {
	t.Helper()

	tpl, err := ip.Compile(text, false, trust.None)
	if err != nil {
		t.Fatalf("Compile(%q) error: %v", text, err)
	}

	if tpl == nil {
		t.Fatalf("Compile(%q) returned nil template", text)
	}

	return tpl
}

func mustRender(t *testing.T, tpl *Template, ctx any) string {
	t.Helper()

	out, ok := tpl.Render(ctx)
	if !ok {
		_, err := tpl.Evaluate(ctx)
		t.Fatalf("Render(%q) failed: %v", tpl.Source(), err)
	}

	return out
}

func TestScenarios(t *testing.T) {
	ip, _ := newTest(t)

	t.Run("hello", func(t *testing.T) {
		tpl := mustCompile(t, ip, "Hello {{name}}!")
		if got := mustRender(t, tpl, map[string]any{"name": "World"}); got != "Hello World!" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("plain text", func(t *testing.T) {
		tpl := mustCompile(t, ip, "no markup here")
		if got := mustRender(t, tpl, nil); got != "no markup here" {
			t.Errorf("got %q", got)
		}

		tpl, err := ip.Compile("no markup here", true, trust.None)
		if err != nil || tpl != nil {
			t.Errorf("mustHaveExpression: got %v, %v; want nil, nil", tpl, err)
		}
	})

	t.Run("no concatenation", func(t *testing.T) {
		_, err := ip.Compile("{{a}}{{b}}", false, trust.URL)
		if !errors.Is(err, ErrNoConcatenation) {
			t.Fatalf("error = %v, want ErrNoConcatenation", err)
		}
	})

	t.Run("deferred", func(t *testing.T) {
		tpl := mustCompile(t, ip, "x={||pendingValue||}")

		segs := tpl.Segments()
		if len(segs) != 2 || !segs[1].Deferred || segs[1].Text != "pendingValue" {
			t.Fatalf("segments = %+v", segs)
		}

		p := eval.NewPromise()
		ctx := map[string]any{"pendingValue": p}

		if got := mustRender(t, tpl, ctx); got != "x=" {
			t.Errorf("pending: got %q, want %q", got, "x=")
		}

		p.Resolve("resolved")

		if got := mustRender(t, tpl, ctx); got != "x=resolved" {
			t.Errorf("resolved: got %q, want %q", got, "x=resolved")
		}
	})

	t.Run("empty", func(t *testing.T) {
		tpl := mustCompile(t, ip, "")

		segs := tpl.Segments()
		if len(segs) != 1 || segs[0].Kind != SegmentLiteral || segs[0].Text != "" {
			t.Errorf("segments = %+v", segs)
		}

		if got := mustRender(t, tpl, nil); got != "" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("dangling", func(t *testing.T) {
		text := "dangling {{ unterminated"
		tpl := mustCompile(t, ip, text)

		if tpl.HasExpression() {
			t.Error("dangling start marker produced an expression")
		}

		if got := mustRender(t, tpl, map[string]any{}); got != text {
			t.Errorf("got %q, want %q", got, text)
		}
	})
}

func TestPassthrough(t *testing.T) {
	ip, _ := newTest(t)

	texts := []string{
		"a",
		"plain words",
		"}} closing first {{",
		"single { brace }",
		"{| almost |}",
		"unicode ✓ text",
	}

	for _, text := range texts {
		tpl := mustCompile(t, ip, text)
		if got := mustRender(t, tpl, map[string]any{"x": 1}); got != text {
			t.Errorf("Render(%q) = %q", text, got)
		}

		if tpl, err := ip.Compile(text, true, trust.HTML); tpl != nil || err != nil {
			t.Errorf("Compile(%q, true) = %v, %v", text, tpl, err)
		}
	}
}

func TestLiteralExpressionLiteral(t *testing.T) {
	ip, _ := newTest(t)

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "mid", "mid"},
		{"nil", nil, ""},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"bool", true, "true"},
		{"slice", []any{1, "two"}, `[1,"two"]`},
		{"map", map[string]any{"k": "v"}, `{"k":"v"}`},
		{"html string", "<b>&</b>", "<b>&</b>"},
		{"nested html", map[string]any{"h": "<i>"}, `{"h":"<i>"}`},
		{"deep html", map[string]any{"a": map[string]any{"b": "<b>&"}}, `{"a":{"b":"<b>&"}}`},
		{"slice html", []any{"a&b"}, `["a&b"]`},
		{"struct html", struct{ S string }{"<x>"}, `{"S":"<x>"}`},
		{"nil pointer", (*struct{})(nil), ""},
		{"trusted wrapper", trust.As(trust.HTML, "<em>"), "<em>"},
	}

	tpl := mustCompile(t, ip, "A[{{v}}]B")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustRender(t, tpl, map[string]any{"v": tt.value})
			if want := "A[" + tt.want + "]B"; got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}

	if got := mustRender(t, tpl, map[string]any{}); got != "A[]B" {
		t.Errorf("absent value: got %q", got)
	}
}

func TestIdempotence(t *testing.T) {
	ip, _ := newTest(t)

	text := "{{a}} + {{b}} = {{a + b}}"
	ctx := map[string]any{"a": 2, "b": 3}

	first := mustRender(t, mustCompile(t, ip, text), ctx)
	second := mustRender(t, mustCompile(t, ip, text), ctx)

	if first != second || first != "2 + 3 = 5" {
		t.Errorf("renders differ: %q, %q", first, second)
	}
}

func TestSegments(t *testing.T) {
	ip, _ := newTest(t)

	type seg struct {
		kind     SegmentKind
		text     string
		deferred bool
	}

	tests := []struct {
		text string
		want []seg
	}{
		{"{{a}}{{b}}", []seg{
			{SegmentExpression, "a", false},
			{SegmentExpression, "b", false},
		}},
		{"x{{a}}", []seg{
			{SegmentLiteral, "x", false},
			{SegmentExpression, "a", false},
		}},
		{"{{a}} and {{ b", []seg{
			{SegmentExpression, "a", false},
			{SegmentLiteral, " and {{ b", false},
		}},
		{"{||a||}{{b}}{||c||}", []seg{
			{SegmentExpression, "a", true},
			{SegmentExpression, "b", false},
			{SegmentExpression, "c", true},
		}},
		{"p {|| q", []seg{
			{SegmentLiteral, "p {|| q", false},
		}},
		{"{{ '{||x||}' }}", []seg{
			{SegmentExpression, " '{||x||}' ", false},
		}},
		{"{{}}", []seg{
			{SegmentExpression, "", false},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			tpl := mustCompile(t, ip, tt.text)

			var got []seg
			for _, s := range tpl.Segments() {
				got = append(got, seg{s.Kind, s.Text, s.Deferred})

				if s.IsExpression() != (s.Expr != nil) {
					t.Errorf("segment %+v: Expr presence does not match kind", s)
				}
			}

			if !slices.Equal(got, tt.want) {
				t.Errorf("segments = %+v, want %+v", got, tt.want)
			}

			if tpl.HasExpression() != slices.ContainsFunc(got, func(s seg) bool {
				return s.kind == SegmentExpression
			}) {
				t.Error("HasExpression disagrees with segments")
			}
		})
	}
}

func TestNestedSecondaryNotScanned(t *testing.T) {
	ip, _ := newTest(t)

	tpl := mustCompile(t, ip, "{{ '{||x||}' }}")
	if got := mustRender(t, tpl, nil); got != "{||x||}" {
		t.Errorf("got %q", got)
	}

	if got := mustRender(t, mustCompile(t, ip, "[{{}}]"), nil); got != "[]" {
		t.Errorf("empty expression: got %q", got)
	}
}

func TestCustomDelimiters(t *testing.T) {
	cfg := delim.Default()
	cfg.SetPrimaryStart("[[")
	cfg.SetPrimaryEnd("]]")
	cfg.SetSecondaryStart("<%")
	cfg.SetSecondaryEnd("%>")

	ip, _ := newTest(t, WithDelimiters(cfg))

	cfg.SetPrimaryStart("((")

	if ip.StartSymbol() != "[[" || ip.EndSymbol() != "]]" ||
		ip.UnwrapStartSymbol() != "<%" || ip.UnwrapEndSymbol() != "%>" {
		t.Fatalf("symbols = %s %s %s %s",
			ip.StartSymbol(), ip.EndSymbol(),
			ip.UnwrapStartSymbol(), ip.UnwrapEndSymbol())
	}

	tpl := mustCompile(t, ip, "[[a]] <%b%> {{c}}")
	ctx := map[string]any{"a": "A", "b": eval.Resolved("B"), "c": "C"}

	if got := mustRender(t, tpl, ctx); got != "A B {{c}}" {
		t.Errorf("got %q", got)
	}
}

func TestDefaultSymbols(t *testing.T) {
	ip := New()

	got := []string{ip.StartSymbol(), ip.EndSymbol(), ip.UnwrapStartSymbol(), ip.UnwrapEndSymbol()}
	want := []string{"{{", "}}", "{||", "||}"}

	if !slices.Equal(got, want) {
		t.Errorf("symbols = %v, want %v", got, want)
	}
}

func TestDeferredResolution(t *testing.T) {
	engine := eval.NewEngine()
	ip, _ := newTest(t, WithEngine(engine))

	ctx := map[string]any{"p": eval.Resolved("v")}

	if got := mustRender(t, mustCompile(t, ip, "{{p}}"), ctx); got != "{}" {
		t.Errorf("primary: got %q, want {}", got)
	}

	if got := mustRender(t, mustCompile(t, ip, "{||p||}"), ctx); got != "v" {
		t.Errorf("deferred: got %q, want v", got)
	}

	if engine.AsyncMode() || !engine.LogWarnings() {
		t.Errorf("deferred compile changed engine defaults: async=%v warn=%v",
			engine.AsyncMode(), engine.LogWarnings())
	}
}

func TestDeferredNilPromise(t *testing.T) {
	ip, rec := newTest(t)

	tpl := mustCompile(t, ip, "x={||p||}")

	got, ok := tpl.Render(map[string]any{"p": (*eval.Promise)(nil)})
	if !ok || got != "x=" {
		t.Errorf("Render() = %q, %v; want %q, true", got, ok, "x=")
	}

	if err := rec.last(); err != nil {
		t.Errorf("unexpected reported error: %v", err)
	}
}

func TestConcurrentDeferredCompile(t *testing.T) {
	engine := eval.NewEngine()
	ip, _ := newTest(t, WithEngine(engine))

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Go(func() {
			text := fmt.Sprintf("{{v%d}}{||w%d||}", i, i)
			tpl, err := ip.Compile(text, false, trust.None)
			if err != nil {
				t.Errorf("Compile(%q): %v", text, err)

				return
			}

			segs := tpl.Segments()
			if segs[0].Expr.Options().ResolveAsync || !segs[1].Expr.Options().ResolveAsync {
				t.Errorf("%q: options leaked between segments", text)
			}
		})
	}

	wg.Wait()

	if engine.AsyncMode() {
		t.Error("engine async mode changed")
	}
}

func TestConcurrentRender(t *testing.T) {
	ip, rec := newTest(t)
	tpl := mustCompile(t, ip, "{{n}}-{{n * 2}}")

	var wg sync.WaitGroup

	for i := range 32 {
		wg.Go(func() {
			got, ok := tpl.Render(map[string]any{"n": i})
			if want := fmt.Sprintf("%d-%d", i, i*2); !ok || got != want {
				t.Errorf("Render(%d) = %q, %v; want %q", i, got, ok, want)
			}
		})
	}

	wg.Wait()

	if err := rec.last(); err != nil {
		t.Errorf("unexpected report: %v", err)
	}
}

func TestTrustedContext(t *testing.T) {
	ip, rec := newTest(t)

	t.Run("single expression", func(t *testing.T) {
		tpl, err := ip.Compile("{{u}}", false, trust.URL)
		if err != nil {
			t.Fatal(err)
		}

		got := mustRender(t, tpl, map[string]any{"u": trust.As(trust.URL, "https://x.test/")})
		if got != "https://x.test/" {
			t.Errorf("got %q", got)
		}

		if tpl.Trusted() != trust.URL {
			t.Errorf("Trusted() = %v", tpl.Trusted())
		}
	})

	t.Run("single literal", func(t *testing.T) {
		tpl, err := ip.Compile("static", false, trust.HTML)
		if err != nil {
			t.Fatal(err)
		}

		if got := mustRender(t, tpl, nil); got != "static" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("concatenations", func(t *testing.T) {
		for _, text := range []string{"a{{b}}", "{{a}}b", "{{a}}{||b||}", "x{||y||}"} {
			if _, err := ip.Compile(text, false, trust.ResourceURL); !errors.Is(err, ErrNoConcatenation) {
				t.Errorf("Compile(%q) error = %v", text, err)
			}
		}
	})

	t.Run("concatenation checked before plain text", func(t *testing.T) {
		// A single dangling literal is one segment, so it passes.
		tpl, err := ip.Compile("{{ open", true, trust.URL)
		if err != nil || tpl != nil {
			t.Errorf("got %v, %v", tpl, err)
		}
	})

	t.Run("untrusted value", func(t *testing.T) {
		tpl, err := ip.Compile("{{u}}", false, trust.URL)
		if err != nil {
			t.Fatal(err)
		}

		got, ok := tpl.Render(map[string]any{"u": "javascript:alert(1)"})
		if ok || got != "" {
			t.Fatalf("Render = %q, %v; want failure", got, ok)
		}

		err = rec.last()
		if !errors.Is(err, ErrInterpolation) || !errors.Is(err, trust.ErrUntrustedValue) {
			t.Errorf("reported %v", err)
		}
	})

	t.Run("passthrough policy", func(t *testing.T) {
		ip, _ := newTest(t, WithTrustPolicy(trust.Passthrough{}))

		tpl, err := ip.Compile("{{u}}", false, trust.HTML)
		if err != nil {
			t.Fatal(err)
		}

		if got := mustRender(t, tpl, map[string]any{"u": "<b>"}); got != "<b>" {
			t.Errorf("got %q", got)
		}
	})
}

func TestCompileError(t *testing.T) {
	ip, _ := newTest(t)

	for _, text := range []string{"{{ 1 + }}", "ok {|| ) ||}"} {
		tpl, err := ip.Compile(text, false, trust.None)
		if tpl != nil || !errors.Is(err, eval.ErrCompile) {
			t.Errorf("Compile(%q) = %v, %v; want ErrCompile", text, tpl, err)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	ip, rec := newTest(t)

	tests := []struct {
		name  string
		text  string
		ctx   map[string]any
		cause error
	}{
		{
			name:  "function error",
			text:  "x={{ boom() }}",
			ctx:   map[string]any{"boom": func() (any, error) { return nil, errors.New("kaboom") }},
			cause: eval.ErrEvaluate,
		},
		{
			name:  "panic",
			text:  "x={{ boom() }}",
			ctx:   map[string]any{"boom": func() any { panic("kaboom") }},
			cause: eval.ErrEvaluate,
		},
		{
			name: "unencodable",
			text: "x={{ ch }}",
			ctx:  map[string]any{"ch": make(chan int)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl := mustCompile(t, ip, tt.text)

			got, ok := tpl.Render(tt.ctx)
			if ok || got != "" {
				t.Fatalf("Render = %q, %v; want failure", got, ok)
			}

			err := rec.last()
			if !errors.Is(err, ErrInterpolation) {
				t.Fatalf("reported %v, want ErrInterpolation", err)
			}

			if tt.cause != nil && !errors.Is(err, tt.cause) {
				t.Errorf("reported %v, want cause %v", err, tt.cause)
			}

			msg := err.Error()
			if !strings.HasPrefix(msg, "[$interpolate:interr] Can't interpolate: "+tt.text+"\n") {
				t.Errorf("message = %q", msg)
			}

			_, direct := tpl.Evaluate(tt.ctx)
			if direct == nil || direct.Error() != msg {
				t.Errorf("Evaluate error = %v, want %q", direct, msg)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := ErrNoConcatenation.WithArgs("{{a}}{{b}}")

	want := "[$interpolate:noconcat] Error while interpolating: {{a}}{{b}}\n" +
		"Strict Contextual Escaping disallows interpolations that concatenate " +
		"multiple expressions when a trusted value is required."
	if got := err.Error(); got != want {
		t.Errorf("Error() =\n%q\nwant\n%q", got, want)
	}

	if err.Code() != "noconcat" {
		t.Errorf("Code() = %q", err.Code())
	}

	if got := ErrInterpolation.Message(); got != "Can't interpolate: {0}\n{1}" {
		t.Errorf("unformatted Message() = %q", got)
	}

	if got := ErrInterpolation.WithArgs(nil, 7).Message(); got != "Can't interpolate: undefined\n7" {
		t.Errorf("Message() = %q", got)
	}
}

func TestExpressions(t *testing.T) {
	ip, _ := newTest(t)
	tpl := mustCompile(t, ip, "a {{x}} b {||y||} c")

	if got := tpl.Expressions(); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("Expressions() = %v", got)
	}

	if got := SegmentExpression.String(); got != "expression" {
		t.Errorf("String() = %q", got)
	}
}
