package cli

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/interp/log"
)

// resolve is a [kong.ConfigurationLoader] that parses YAML config files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// The document is a mapping of flag names to values:
//
//	log-level: debug
//	start-symbol: "[["
//	data: [values.yaml, overrides.json]
//	set: {greeting: hello}
//	log:
//	  pretty: false
//
// Nested mappings are also flattened with hyphens, so the last entry above
// applies to --log-pretty. Flag names may use underscores in place of
// hyphens. Command-line flags override config file values.
func resolve(r io.Reader) (kong.Resolver, error) {
	var doc map[string]any

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err != io.EOF {
			log.Warn("ignoring malformed configuration", slog.Any("error", err))
		}

		return config{}, nil
	}

	cfg := make(config)
	flatten(cfg, "", doc)

	return cfg, nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (config) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	for _, name := range []string{
		flag.Name,
		strings.ReplaceAll(flag.Name, "-", "_"),
	} {
		if value, ok := r[name]; ok {
			return value, nil
		}
	}

	return nil, nil //nolint:nilnil
}

// flatten stores every value of doc in cfg under its hyphen-joined path.
// Mappings are stored both whole and flattened, since a map-typed flag
// like --set consumes the mapping itself.
func flatten(cfg config, prefix string, doc map[string]any) {
	for key, value := range doc {
		name := key
		if prefix != "" {
			name = prefix + "-" + key
		}

		if sub, ok := value.(map[string]any); ok {
			flatten(cfg, name, sub)
		}

		cfg[name] = flagText(value)
	}
}

// flagText renders value in the textual form kong's mappers decode: lists
// joined with ',' and mappings as 'k=v' pairs joined with ';'.
func flagText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""

	case string:
		return v

	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = flagText(e)
		}

		return strings.Join(parts, ",")

	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			parts = append(parts, k+"="+flagText(v[k]))
		}

		return strings.Join(parts, ";")

	default:
		return fmt.Sprint(v)
	}
}
