package cmd

import (
	"context"
	"maps"
	"path/filepath"

	"github.com/ardnew/interp/cli/cmd/repl"
	"github.com/ardnew/interp/trust"
)

// Repl starts an interactive session that renders each entered template.
type Repl struct {
	Trusted trust.Context `default:"none" help:"Compile for this trust context (${trustContexts})." short:"t"`
	History bool          `default:"true" help:"Persist line history in the cache directory."        negatable:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s, err := sessionFrom(ctx)
	if err != nil {
		return err
	}

	cfg := repl.Config{
		Interp:  s.Interp,
		Logger:  s.Logger,
		Trusted: r.Trusted,
		Load: func(set map[string]string) (map[string]any, error) {
			merged := make(map[string]string, len(s.Set)+len(set))
			maps.Copy(merged, s.Set)
			maps.Copy(merged, set)

			return LoadData(s.DataFiles, merged)
		},
	}

	if ktx := kongContextFrom(ctx); r.History && ktx != nil {
		if dir, ok := ktx.Model.Vars()[CacheIdentifier]; ok {
			cfg.History = filepath.Join(dir, "history.utf8")
		}
	}

	return repl.Run(ctx, cfg)
}
