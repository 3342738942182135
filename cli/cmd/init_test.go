package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

type initTestCLI struct {
	Verbose bool              `help:"Enable verbose output"`
	Output  string            `help:"Output file"`
	Count   int               `help:"Number of items"`
	Tags    []string          `help:"Tags"`
	Set     map[string]string `help:"Overrides"`
	Empty   string            `help:"Unset string"`
	Secret  string            `help:"Hidden"           hidden:""`

	Init Init `cmd:""`
}

func parseInit(t *testing.T, confPath string, args ...string) context.Context {
	t.Helper()

	var cli initTestCLI

	parser, err := kong.New(&cli, kong.Vars{ConfigIdentifier: confPath})
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(append([]string{"init"}, args...))
	if err != nil {
		t.Fatal(err)
	}

	return WithContext(context.Background(), ktx)
}

func TestInitRun(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		force   bool
		exists  bool
		wantErr bool
	}{
		{name: "create_new_config"},
		{name: "overwrite_existing_with_force", force: true, exists: true},
		{name: "fail_without_force", exists: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			confPath := filepath.Join(t.TempDir(), "config.yaml")

			if tt.exists {
				if err := os.WriteFile(confPath, []byte("existing: content\n"), 0o600); err != nil {
					t.Fatal(err)
				}
			}

			ctx := parseInit(t, confPath, "--verbose", "--count=5", "--output=out.txt")

			err := (&Init{Force: tt.force}).Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Init.Run() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, ErrFileExists) {
					t.Errorf("Init.Run() error = %v, want ErrWriteConfig wrapping ErrFileExists", err)
				}

				return
			}

			content, err := os.ReadFile(confPath)
			if err != nil {
				t.Fatal(err)
			}

			var got map[string]any
			if err := yaml.Unmarshal(content, &got); err != nil {
				t.Fatalf("generated config is not valid YAML: %v\n%s", err, content)
			}

			if got["verbose"] != true || got["output"] != "out.txt" {
				t.Errorf("generated config = %#v", got)
			}

			if _, ok := got["existing"]; ok {
				t.Errorf("generated config kept old content: %#v", got)
			}
		})
	}
}

func TestInitBuildConfig(t *testing.T) {
	t.Parallel()

	ctx := parseInit(t, filepath.Join(t.TempDir(), "config.yaml"),
		"--verbose", "--output=test.txt", "--count=5",
		"--tags=a,b", "--set", "k=v", "--secret=x",
	)

	cfg := (&Init{}).buildConfig(kongContextFrom(ctx))

	got := make(map[string]any, len(cfg))
	for _, item := range cfg {
		got[item.Key.(string)] = item.Value
	}

	for _, name := range []string{"help", "empty", "secret"} {
		if _, ok := got[name]; ok {
			t.Errorf("buildConfig() includes %q: %#v", name, got)
		}
	}

	for name, want := range map[string]any{
		"verbose": true,
		"output":  "test.txt",
		"count":   5,
	} {
		if got[name] != want {
			t.Errorf("buildConfig()[%q] = %#v, want %#v", name, got[name], want)
		}
	}

	if tags, ok := got["tags"].([]string); !ok || len(tags) != 2 {
		t.Errorf("buildConfig()[tags] = %#v", got["tags"])
	}

	if set, ok := got["set"].(map[string]string); !ok || set["k"] != "v" {
		t.Errorf("buildConfig()[set] = %#v", got["set"])
	}

	if cfg[0].Key != "verbose" {
		t.Errorf("buildConfig() order starts with %v, want declaration order", cfg[0].Key)
	}
}

func TestInitWithInvalidPath(t *testing.T) {
	t.Parallel()

	confPath := filepath.Join(t.TempDir(), "missing", "dir", "config.yaml")

	err := (&Init{}).Run(parseInit(t, confPath))
	if !errors.Is(err, ErrWriteConfig) {
		t.Errorf("Init.Run() error = %v, want ErrWriteConfig", err)
	}
}
