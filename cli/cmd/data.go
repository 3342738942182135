package cmd

import (
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// LoadData reads each file as a mapping and merges them left to right, then
// applies set. Keys in set are dotted paths (a.b.c) and values are parsed as
// YAML scalars, falling back to the raw string.
//
// Files ending in .json are decoded as JSON; everything else as YAML.
func LoadData(files []string, set map[string]string) (map[string]any, error) {
	data := make(map[string]any)

	for _, file := range files {
		m, err := loadFile(file)
		if err != nil {
			return nil, ErrLoadData.Wrap(err).With(slog.String("file", file))
		}

		mergeInto(data, m)
	}

	for _, key := range slices.Sorted(maps.Keys(set)) {
		setPath(data, strings.Split(key, "."), parseScalar(set[key]))
	}

	return data, nil
}

func loadFile(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m map[string]any

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(b, &m)
	default:
		err = yaml.Unmarshal(b, &m)
	}

	if err != nil {
		return nil, err
	}

	return m, nil
}

// mergeInto copies src into dst, merging nested maps.
func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		sm, sok := v.(map[string]any)
		dm, dok := dst[k].(map[string]any)

		if sok && dok {
			mergeInto(dm, sm)

			continue
		}

		dst[k] = v
	}
}

func setPath(dst map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		next, ok := dst[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			dst[key] = next
		}

		dst = next
	}

	dst[path[len(path)-1]] = value
}

func parseScalar(s string) any {
	if strings.TrimSpace(s) == "" {
		return s
	}

	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}

	switch v.(type) {
	case map[string]any, []any, nil:
		return s
	}

	return v
}
