package pkg

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	if Name != "interp" {
		t.Errorf("expected Name to be %q, got %q", "interp", Name)
	}
}

func TestVersion(t *testing.T) {
	buf, err := os.ReadFile("VERSION")
	if err != nil {
		t.Fatalf("failed to read VERSION file: %v", err)
	}

	if content := strings.TrimSpace(string(buf)); Version != content {
		t.Errorf("expected Version to be %q, got %q", content, Version)
	}
}

func TestAuthor(t *testing.T) {
	if len(Author) == 0 {
		t.Fatal("expected Author to have at least one entry")
	}

	for i, a := range Author {
		if a.Name == "" || a.Email == "" {
			t.Errorf("Author[%d] has empty field: %+v", i, a)
		}
	}
}

func TestPrefix_NonEmpty(t *testing.T) {
	if Prefix() == "" {
		t.Fatal("expected non-empty prefix")
	}

	if strings.HasPrefix(Prefix(), ".") {
		t.Errorf("expected leading dots removed, got %q", Prefix())
	}
}

func TestConfigPath_JoinsConfigDir(t *testing.T) {
	got := ConfigPath("config")
	want := filepath.Join(ConfigDir(), "config")

	if got != want {
		t.Errorf("ConfigPath() = %q, want %q", got, want)
	}

	if filepath.Base(filepath.Dir(got)) != Prefix() {
		t.Errorf("expected config dir to end with %q, got %q", Prefix(), got)
	}
}

func TestUserDir_FallsBackToHome(t *testing.T) {
	failing := func() (string, error) { return "", os.ErrNotExist }

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got := userDir(failing, ".cache")
	want := filepath.Join(home, ".cache", Prefix())

	if got != want {
		t.Errorf("userDir() = %q, want %q", got, want)
	}
}
