package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestPackage_LogFunctions_UseDefaultLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithLevel(LevelDebug), WithPretty(false)))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
		msg   string
	}{
		{"Debug", Debug, "DEBUG", "debug message"},
		{"Info", Info, "INFO", "info message"},
		{"Warn", Warn, "WARN", "warn message"},
		{"Error", Error, "ERROR", "error message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn(tt.msg, slog.String("key", "value"))

			output := buf.String()
			if !strings.Contains(output, tt.msg) {
				t.Errorf("expected output to contain %q, got: %s", tt.msg, output)
			}

			if !strings.Contains(output, tt.level) {
				t.Errorf("expected output to contain %q, got: %s", tt.level, output)
			}

			if !strings.Contains(output, `"key":"value"`) {
				t.Errorf("expected output to contain attribute, got: %s", output)
			}
		})
	}
}

func TestPackage_Config_WrapsDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithPretty(false)))
	Config(WithLevel(LevelError))

	Info("hidden")

	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered, got: %s", buf.String())
	}

	Error("shown")

	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected error message, got: %s", buf.String())
	}
}

func TestPackage_Caller_PointsAtCallSite(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer

	SetDefault(Make(&buf, WithCaller(true), WithPretty(false)))
	Info("where")

	if !strings.Contains(buf.String(), "pkg_test.go") {
		t.Errorf("expected caller to be the test file, got: %s", buf.String())
	}
}
