package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/interp/interp"
)

// newSession returns a Session that reads stdin and writes to a buffer.
func newSession(stdin string, files []string, set map[string]string) (*Session, *bytes.Buffer) {
	var out bytes.Buffer

	return &Session{
		Interp:    interp.New(interp.WithErrorSink(interp.Discard)),
		Stdout:    &out,
		Stdin:     strings.NewReader(stdin),
		Set:       set,
		DataFiles: files,
	}, &out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestSessionFromMissing(t *testing.T) {
	if _, err := sessionFrom(context.Background()); !errors.Is(err, ErrNoSession) {
		t.Errorf("sessionFrom() error = %v, want ErrNoSession", err)
	}

	if ktx := kongContextFrom(context.Background()); ktx != nil {
		t.Errorf("kongContextFrom() = %v, want nil", ktx)
	}

	for _, run := range []func(context.Context) error{
		(&Render{Template: stdinSource}).Run,
		(&Check{Template: stdinSource}).Run,
		(&Repl{}).Run,
	} {
		if err := run(context.Background()); !errors.Is(err, ErrNoSession) {
			t.Errorf("Run() without session error = %v, want ErrNoSession", err)
		}
	}
}

func TestReadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.tmpl", "from {{file}}")

	s, _ := newSession("from {{stdin}}", nil, nil)

	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{path, "from {{file}}", false},
		{stdinSource, "from {{stdin}}", false},
		{filepath.Join(dir, "missing"), "", true},
	}

	for _, tt := range tests {
		got, err := s.readTemplate(tt.path)
		if (err != nil) != tt.wantErr {
			t.Fatalf("readTemplate(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}

		if tt.wantErr && !errors.Is(err, ErrReadInput) {
			t.Errorf("readTemplate(%q) error = %v, want ErrReadInput", tt.path, err)
		}

		if got != tt.want {
			t.Errorf("readTemplate(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestErrorWrap(t *testing.T) {
	cause := errors.New("boom")
	err := ErrLoadData.Wrap(cause)

	if !errors.Is(err, ErrLoadData) || !errors.Is(err, cause) {
		t.Errorf("wrapped error %v lost its sentinel or cause", err)
	}

	if errors.Is(err, ErrRender) {
		t.Errorf("wrapped error %v matches an unrelated sentinel", err)
	}

	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
}
