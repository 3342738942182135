package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/interp/cli/cmd"
	"github.com/ardnew/interp/interp"
	"github.com/ardnew/interp/log"
	"github.com/ardnew/interp/pkg"
)

// CLI is the top-level command-line interface for interp.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`
	Delim delimConfig `embed:"" group:"delim"`
	Trust trustConfig `embed:"" group:"trust"`
	Eval  evalConfig  `embed:"" group:"eval"`

	Data []string          `help:"Data file(s) merged into the template context (YAML or JSON)" short:"d" type:"existingfile"`
	Set  map[string]string `help:"Override a data value by dotted key (key.path=value)"         short:"s"`

	Version kong.VersionFlag `help:"Print version and exit"`

	Init  cmd.Init  `cmd:"" help:"Initialize configuration file"`
	Check cmd.Check `cmd:"" help:"Compile a template and print its segments"`
	Repl  cmd.Repl  `cmd:"" help:"Render templates interactively"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render a template"`
}

// Run executes the interp CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := pkg.MkdirAll()
	if err != nil {
		return err
	}

	configFilePath := pkg.ConfigPath(cmd.ConfigIdentifier + ".yaml")

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"version":            pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars()).
		CloneWith(cli.Delim.vars()).
		CloneWith(cli.Trust.vars()).
		CloneWith(cli.Eval.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags are applied before parsing so that parse errors are
	// already formatted as requested, regardless of flag position.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{
			cli.Log.group(),
			cli.Pprof.group(),
			cli.Delim.group(),
			cli.Trust.group(),
			cli.Eval.group(),
		}),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, pkg.ConfigPath(cmd.ConfigIdentifier+".json")),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSession(ctx, cli.session())

	return ktx.Run(ctx, &cli)
}

// session builds the compiler and data sources shared by every command.
func (c *CLI) session() *cmd.Session {
	logger := log.Default()

	return &cmd.Session{
		Interp: interp.New(
			interp.WithDelimiters(c.Delim.config()),
			interp.WithEngine(c.Eval.engine(logger)),
			interp.WithTrustPolicy(c.Trust.policy()),
			interp.WithLogger(logger),
		),
		Logger:    logger,
		Set:       c.Set,
		DataFiles: c.Data,
	}
}
