package interp_test

import (
	"errors"
	"fmt"

	"github.com/ardnew/interp/delim"
	"github.com/ardnew/interp/eval"
	"github.com/ardnew/interp/interp"
	"github.com/ardnew/interp/trust"
)

func Example() {
	ip := interp.New()

	tpl, err := ip.Compile("Hello {{name}}!", false, trust.None)
	if err != nil {
		panic(err)
	}

	out, _ := tpl.Render(map[string]any{"name": "World"})
	fmt.Println(out)
	// Output: Hello World!
}

func Example_deferred() {
	ip := interp.New()
	tpl, _ := ip.Compile("status: {||job.state||}", false, trust.None)

	state := eval.NewPromise()
	ctx := map[string]any{"job": map[string]any{"state": state}}

	before, _ := tpl.Render(ctx)
	state.Resolve("done")
	after, _ := tpl.Render(ctx)

	fmt.Printf("%q\n%q\n", before, after)
	// Output:
	// "status: "
	// "status: done"
}

func Example_delimiters() {
	cfg := delim.Default()
	cfg.SetPrimaryStart("<<")
	cfg.SetPrimaryEnd(">>")

	ip := interp.New(interp.WithDelimiters(cfg))
	tpl, _ := ip.Compile("<<a>> + {{b}}", false, trust.None)

	out, _ := tpl.Render(map[string]any{"a": 1})
	fmt.Println(out)
	// Output: 1 + {{b}}
}

func Example_trusted() {
	ip := interp.New(interp.WithErrorSink(interp.SinkFunc(func(err error) {
		fmt.Println("reported:", errors.Is(err, trust.ErrUntrustedValue))
	})))

	_, err := ip.Compile("{{base}}/{{path}}", false, trust.URL)
	fmt.Println(errors.Is(err, interp.ErrNoConcatenation))

	tpl, _ := ip.Compile("{{link}}", false, trust.URL)

	out, ok := tpl.Render(map[string]any{"link": trust.As(trust.URL, "/docs")})
	fmt.Println(out, ok)

	_, ok = tpl.Render(map[string]any{"link": "/docs"})
	fmt.Println(ok)
	// Output:
	// true
	// /docs true
	// reported: true
	// false
}
