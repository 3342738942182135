package cli

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/interp/delim"
	"github.com/ardnew/interp/eval"
	"github.com/ardnew/interp/log"
	"github.com/ardnew/interp/trust"
)

type delimConfig struct {
	StartSymbol       string `default:"${startSymbol}"       help:"Marker that opens an expression."`
	EndSymbol         string `default:"${endSymbol}"         help:"Marker that closes an expression."`
	UnwrapStartSymbol string `default:"${unwrapStartSymbol}" help:"Marker that opens a deferred expression."`
	UnwrapEndSymbol   string `default:"${unwrapEndSymbol}"   help:"Marker that closes a deferred expression."`
}

func (delimConfig) vars() kong.Vars {
	return kong.Vars{
		"startSymbol":       delim.DefaultPrimaryStart,
		"endSymbol":         delim.DefaultPrimaryEnd,
		"unwrapStartSymbol": delim.DefaultSecondaryStart,
		"unwrapEndSymbol":   delim.DefaultSecondaryEnd,
	}
}

func (delimConfig) group() kong.Group {
	var group kong.Group

	group.Key = "delim"
	group.Title = "Delimiters"

	return group
}

func (f delimConfig) config() delim.Config {
	return delim.New(f.StartSymbol, f.EndSymbol, f.UnwrapStartSymbol, f.UnwrapEndSymbol)
}

type trustConfig struct {
	Strict   bool     `default:"true" help:"Require trusted values when compiling for a trust context." negatable:""`
	Origin   string   `               help:"Origin matched by the 'self' URL pattern."`
	AllowURL []string `               help:"Resource URL allow-list pattern ('self', '*' and '**' globs)." name:"allow-url"`
	BlockURL []string `               help:"Resource URL block-list pattern."                             name:"block-url"`
}

func (trustConfig) vars() kong.Vars {
	return kong.Vars{
		"trustContexts": strings.Join(slices.Collect(trust.Contexts()), ","),
	}
}

func (trustConfig) group() kong.Group {
	var group kong.Group

	group.Key = "trust"
	group.Title = "Strict contextual escaping"

	return group
}

func (f trustConfig) policy() trust.Policy {
	if !f.Strict {
		return trust.Passthrough{}
	}

	opts := []trust.StrictOption{trust.WithOrigin(f.Origin)}

	if len(f.AllowURL) > 0 {
		opts = append(opts, trust.WithResourceURLAllowList(f.AllowURL...))
	}

	if len(f.BlockURL) > 0 {
		opts = append(opts, trust.WithResourceURLBlockList(f.BlockURL...))
	}

	return trust.NewStrict(opts...)
}

type evalConfig struct {
	Async    bool `default:"false" help:"Resolve futures in every expression, not only deferred ones."`
	Warnings bool `default:"true"  help:"Warn when an expression resolves a future."                  negatable:""`
}

func (evalConfig) vars() kong.Vars { return kong.Vars{} }

func (evalConfig) group() kong.Group {
	var group kong.Group

	group.Key = "eval"
	group.Title = "Expression evaluation"

	return group
}

func (f evalConfig) engine(logger log.Logger) *eval.Engine {
	logger.Debug("expression engine initialized",
		slog.Bool("async", f.Async),
		slog.Bool("warnings", f.Warnings),
	)

	return eval.NewEngine(
		eval.WithLogger(logger),
		eval.WithAsyncMode(f.Async),
		eval.WithLogWarnings(f.Warnings),
	)
}
