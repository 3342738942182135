package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/interp/trust"
)

// Render compiles a template and prints it rendered against the data
// context.
type Render struct {
	Template           string        `arg:"" default:"-" help:"Template file or '-' for stdin" optional:"" type:"path"`
	Trusted            trust.Context `default:"none" help:"Require a value trusted for this context (${trustContexts})." short:"t"`
	MustHaveExpression bool          `help:"Fail when the template contains no expression." short:"m"`
	Watch              bool          `help:"Render again whenever the template or a data file changes." short:"w"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s, err := sessionFrom(ctx)
	if err != nil {
		return err
	}

	err = r.once(s, s.stdout())
	if !r.Watch {
		return err
	}

	if err != nil {
		s.Logger.ErrorContext(ctx, "render failed", slog.Any("error", err))
	}

	paths := append([]string{r.Template}, s.DataFiles...)
	if r.Template == stdinSource {
		paths = paths[1:]
	}

	return watchFiles(ctx, s.Logger, paths, defaultDebounce, func() error {
		return r.once(s, s.stdout())
	})
}

// once reads, compiles, and renders the template a single time.
func (r *Render) once(s *Session, w io.Writer) error {
	text, err := s.readTemplate(r.Template)
	if err != nil {
		return err
	}

	tpl, err := s.Interp.Compile(text, r.MustHaveExpression, r.Trusted)
	if err != nil {
		return err
	}

	if tpl == nil {
		return ErrPlainText.With(slog.String("template", r.Template))
	}

	data, err := s.Data()
	if err != nil {
		return err
	}

	out, ok := tpl.Render(data)
	if !ok {
		return ErrRender.With(slog.String("template", r.Template))
	}

	_, err = io.WriteString(w, out)

	return err
}
