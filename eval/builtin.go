package eval

// Built-in names visible to every map context. The static part is built
// once per process and cloned for each engine; env() is bound per engine so
// tests and callers can supply their own variables.

import (
	"bufio"
	"bytes"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ardnew/mung"
	"github.com/goccy/go-json"
)

//nolint:gochecknoglobals
var staticBuiltins = sync.OnceValue(func() map[string]any {
	return map[string]any{
		"target":   getTarget(),
		"platform": getPlatform(),
		"hostname": getHostname(),
		"shell":    getShell(),

		"cwd": getCwd,

		"json": JSON,

		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": fileIsRegular,
			"isSymlink": fileIsSymlink,
		},

		"path": map[string]any{
			"abs":  pathAbs,
			"cat":  pathCat,
			"rel":  pathRel,
			"base": filepath.Base,
			"dir":  filepath.Dir,
			"ext":  filepath.Ext,
		},

		"mung": map[string]any{
			"prefix":   mungPrefix,
			"prefixif": mungPrefixIf,
		},
	}
})

func makeBuiltins(processEnv map[string]string, extra map[string]any) map[string]any {
	b := maps.Clone(staticBuiltins())
	b["env"] = envFunc(processEnv)
	maps.Copy(b, extra)

	return b
}

// ---------------------------------------------------------------------------
// System information
// ---------------------------------------------------------------------------

// target identifies an operating system and instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// getTarget returns the host target using GNU GCC/LLVM naming conventions.
func getTarget() target {
	t := getPlatform()

	switch t.Arch {
	case "386":
		t.Arch = "i386"
	case "amd64":
		t.Arch = "x86_64"
	case "arm64":
		if t.OS != "darwin" {
			t.Arch = "aarch64"
		}
	case "mipsle":
		t.Arch = "mipsel"
	}

	return t
}

// getPlatform returns the host target using Go conventions.
func getPlatform() target {
	return target{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}

	return hostname
}

func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	name := os.Getenv("USER")
	if name == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}

	defer f.Close()

	s := bufio.NewScanner(f)
	for s.Scan() {
		e := strings.Split(s.Text(), ":")
		if len(e) > 6 && e[0] == name {
			return e[6]
		}
	}

	return ""
}

func getCwd() string {
	cwd, err := os.Getwd()
	if err != nil {
		return pathAbs(".")
	}

	return cwd
}

// ---------------------------------------------------------------------------
// Filesystem
// ---------------------------------------------------------------------------

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !os.IsNotExist(err)
}

func fileIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.IsDir()
}

func fileIsRegular(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	return info.Mode().IsRegular()
}

func fileIsSymlink(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeSymlink != 0
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func pathAbs(path string) string {
	p, err := filepath.Abs(path)
	if err != nil {
		return path
	}

	return p
}

func pathCat(elem ...string) string {
	return filepath.Join(elem...)
}

func pathRel(from, to string) string {
	p, err := filepath.Rel(pathAbs(from), pathAbs(to))
	if err != nil {
		return pathCat(from, to)
	}

	return p
}

// ---------------------------------------------------------------------------
// PATH-like lists
// ---------------------------------------------------------------------------

func mungPrefix(list string, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
	).String()
}

func mungPrefixIf(
	list string,
	predicate func(string) bool,
	prefix ...string,
) string {
	return mung.Make(
		mung.WithSubjectItems(list),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(predicate),
	).String()
}

// ---------------------------------------------------------------------------
// Serialization and environment
// ---------------------------------------------------------------------------

// JSON encodes v without escaping HTML characters at any depth. The
// trailing newline written by the encoder is dropped.
func JSON(v any) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return "", err
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// buildProcessEnvMap converts "KEY=VALUE" entries to a map. A nil list
// reads the process environment.
func buildProcessEnvMap(entries []string) map[string]string {
	if entries == nil {
		entries = os.Environ()
	}

	result := make(map[string]string, len(entries))

	for _, entry := range entries {
		if key, value, ok := strings.Cut(entry, "="); ok {
			result[key] = value
		}
	}

	return result
}

func envFunc(processEnv map[string]string) func(string) string {
	return func(key string) string {
		return processEnv[key]
	}
}
