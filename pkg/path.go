package pkg

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

// DirMode is the permission mode used for directories created by [MkdirAll].
const DirMode os.FileMode = 0o700

// Prefix returns the base name used to construct the configuration and cache
// directory paths.
//
// It is the base name of the running executable (without extension), except:
//   - "__debug_bin<N>" (dlv default output) becomes [Name]
//   - leading dots are removed
//
//nolint:gochecknoglobals
var Prefix = sync.OnceValue(
	func() string {
		id := os.Args[0]
		if exe, err := os.Executable(); err == nil {
			id = exe
		}

		id = filepath.Base(id)
		id = strings.TrimSuffix(id, filepath.Ext(id))
		id = debugBin.ReplaceAllString(id, Name)
		id = leadingDots.ReplaceAllString(id, "")

		if id == "" {
			return Name
		}

		return id
	},
)

var (
	debugBin    = regexp.MustCompile(`^__debug_bin\d*$`)
	leadingDots = regexp.MustCompile(`^\.+`)
)

// ConfigDir returns the directory holding the configuration file.
//
//nolint:gochecknoglobals
var ConfigDir = sync.OnceValue(
	func() string { return userDir(os.UserConfigDir, ".config") },
)

// CacheDir returns the directory holding transient files such as REPL
// history and profiles.
//
//nolint:gochecknoglobals
var CacheDir = sync.OnceValue(
	func() string { return userDir(os.UserCacheDir, ".cache") },
)

// ConfigPath joins elem onto [ConfigDir].
func ConfigPath(elem ...string) string {
	return filepath.Join(append([]string{ConfigDir()}, elem...)...)
}

// CachePath joins elem onto [CacheDir].
func CachePath(elem ...string) string {
	return filepath.Join(append([]string{CacheDir()}, elem...)...)
}

// MkdirAll creates the configuration and cache directories.
func MkdirAll() error {
	for _, dir := range []string{ConfigDir(), CacheDir()} {
		if err := os.MkdirAll(dir, DirMode); err != nil {
			return err
		}
	}

	return nil
}

// userDir resolves a per-user base directory, falling back to a hidden
// directory under $HOME and then the working directory.
func userDir(base func() (string, error), hidden string) string {
	dir, err := base()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, Prefix())
}
