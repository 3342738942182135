package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/interp/log"
	"github.com/ardnew/interp/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ErrWriteConfig.Wrap(ErrNoSession)
	}

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalWithOptions(
		i.buildConfig(ktx),
		yaml.Indent(defaultConfigIndent),
	)
	if err != nil {
		return ErrYAMLMarshal.With(slog.String("file", confPath)).Wrap(err)
	}

	err = os.WriteFile(confPath, data, 0o600)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// buildConfig collects the current flag values in declaration order.
func (i *Init) buildConfig(ktx *kong.Context) yaml.MapSlice {
	var entries yaml.MapSlice

	prefixIgnore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if val := flagValue(ktx, flag); val != nil {
			entries = append(entries, yaml.MapItem{Key: flag.Name, Value: val})
		}
	}

	return entries
}

// flagValue returns the YAML value for a CLI flag, or nil if unset.
func flagValue(ktx *kong.Context, flag *kong.Flag) any {
	val := ktx.FlagValue(flag)

	switch v := val.(type) {
	case nil:
		return nil

	case string:
		if v == "" {
			return nil
		}

		return v

	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return v

	case []string:
		if len(v) == 0 {
			return nil
		}

		return v

	case map[string]string:
		if len(v) == 0 {
			return nil
		}

		return v

	case fmt.Stringer:
		return v.String()

	default:
		return fmt.Sprint(v)
	}
}
