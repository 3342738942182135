package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func TestResolve(t *testing.T) {
	const doc = `
log-level: debug
start_symbol: "[["
data: [a.yaml, b.json]
set:
  greeting: hello
  count: 3
log:
  pretty: false
strict: true
`

	r, err := resolve(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"start-symbol", "[["},
		{"data", "a.yaml,b.json"},
		{"set", "count=3;greeting=hello"},
		{"set-greeting", "hello"},
		{"log-pretty", "false"},
		{"strict", "true"},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			got, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: tt.flag}})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Resolve(%q) = %#v, want %#v", tt.flag, got, tt.want)
			}
		})
	}
}

func TestResolveEmptyAndMalformed(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":     "",
		"malformed": "log-level: [unterminated",
	} {
		t.Run(name, func(t *testing.T) {
			r, err := resolve(strings.NewReader(doc))
			if err != nil {
				t.Fatalf("resolve() error = %v", err)
			}

			if cfg, ok := r.(config); !ok || len(cfg) != 0 {
				t.Errorf("resolve() = %#v, want empty config", r)
			}
		})
	}
}

func TestLogConfigScan(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		level  logLevel
		format logFormat
		pretty bool
		caller bool
	}{
		{
			name:   "separate_values",
			args:   []string{"--log-level", "debug", "--log-format", "json"},
			level:  "debug",
			format: "json",
			pretty: true,
		},
		{
			name:   "assigned_values",
			args:   []string{"render", "--log-level=warn", "--no-log-pretty", "--log-caller"},
			level:  "warn",
			format: "text",
			caller: true,
		},
		{
			name:   "assigned_bool",
			args:   []string{"--log-pretty=false", "--no-log-caller=false"},
			level:  "info",
			format: "text",
			caller: true,
		},
		{
			name:   "unrelated",
			args:   []string{"--start-symbol", "[[", "-"},
			level:  "info",
			format: "text",
			pretty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := logConfig{Level: "info", Format: "text", Pretty: true}
			f.scan(tt.args)

			if f.Level != tt.level || f.Format != tt.format ||
				f.Pretty != tt.pretty || f.Caller != tt.caller {
				t.Errorf("scan(%q) = %+v", tt.args, f)
			}
		})
	}
}
