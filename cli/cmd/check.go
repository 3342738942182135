package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/interp/interp"
	"github.com/ardnew/interp/trust"
)

// Check compiles a template without rendering it and prints its segments.
type Check struct {
	Template string        `arg:"" default:"-" help:"Template file or '-' for stdin" optional:"" type:"path"`
	Trusted  trust.Context `default:"none" help:"Compile for this trust context (${trustContexts})." short:"t"`
	Format   string        `default:"text" enum:"text,json,yaml" help:"Output format (${enum})." short:"f"`
	Indent   int           `default:"2" help:"Indent width for JSON and YAML output" short:"i"`
}

type segmentView struct {
	Kind     string   `json:"kind"               yaml:"kind"`
	Text     string   `json:"text"               yaml:"text"`
	Refs     []string `json:"refs,omitempty"     yaml:"refs,omitempty"`
	Deferred bool     `json:"deferred,omitempty" yaml:"deferred,omitempty"`
}

type templateView struct {
	Source        string        `json:"source"            yaml:"source"`
	Trusted       string        `json:"trusted,omitempty" yaml:"trusted,omitempty"`
	Segments      []segmentView `json:"segments"          yaml:"segments"`
	HasExpression bool          `json:"hasExpression"     yaml:"hasExpression"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s, err := sessionFrom(ctx)
	if err != nil {
		return err
	}

	text, err := s.readTemplate(c.Template)
	if err != nil {
		return err
	}

	tpl, err := s.Interp.Compile(text, false, c.Trusted)
	if err != nil {
		return err
	}

	return c.write(s.stdout(), makeTemplateView(tpl))
}

func makeTemplateView(tpl *interp.Template) templateView {
	view := templateView{
		Source:        tpl.Source(),
		HasExpression: tpl.HasExpression(),
	}

	if tpl.Trusted() != trust.None {
		view.Trusted = tpl.Trusted().String()
	}

	for _, seg := range tpl.Segments() {
		sv := segmentView{
			Kind:     seg.Kind.String(),
			Text:     seg.Text,
			Deferred: seg.Deferred,
		}

		if seg.Expr != nil {
			sv.Refs = seg.Expr.Identifiers()
		}

		view.Segments = append(view.Segments, sv)
	}

	return view
}

func (c *Check) write(w io.Writer, view templateView) error {
	indent := strings.Repeat(" ", max(c.Indent, 0))

	switch c.Format {
	case "json":
		b, err := json.MarshalIndent(view, "", indent)
		if err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		_, err = fmt.Fprintln(w, string(b))

		return err

	case "yaml":
		b, err := yaml.MarshalWithOptions(view, yaml.Indent(max(c.Indent, 1)))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err).With(slog.Int("indent", c.Indent))
		}

		_, err = w.Write(b)

		return err
	}

	for i, seg := range view.Segments {
		flag := " "
		if seg.Deferred {
			flag = "*"
		}

		line := fmt.Sprintf("%3d %s %-10s %s", i, flag, seg.Kind, strconv.Quote(seg.Text))
		if len(seg.Refs) > 0 {
			line += " -> " + strings.Join(seg.Refs, ", ")
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}
