//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/interp/log"
	"github.com/ardnew/interp/pkg"
	"github.com/ardnew/interp/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"Enable profiling"         placeholder:"${enum}" short:"p"`
	Dir  string `default:"${pprofDir}"                          help:"Profile output directory"                                 type:"path"`
}

func (pprofConfig) vars() kong.Vars {
	return kong.Vars{
		"pprofModeEnum": strings.Join(slices.Sorted(profile.Modes()), ","),
		"pprofDir":      pkg.CachePath(profile.Tag),
	}
}

func (pprofConfig) group() kong.Group {
	var group kong.Group

	group.Key = "pprof"
	group.Title = "Profiling (pprof)"

	return group
}

// start starts profiling if configured.
func (f pprofConfig) start(ctx context.Context) (stop func()) {
	if f.Mode == "" {
		return func() {}
	}

	attrs := []slog.Attr{
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
	}

	log.DebugContext(ctx, "pprof start", attrs...)

	profiler := profile.New(
		profile.WithMode(f.Mode),
		profile.WithPath(f.Dir),
		profile.WithQuiet(true),
	).Start()

	return func() {
		log.DebugContext(ctx, "pprof stop", attrs...)
		profiler.Stop()
	}
}
