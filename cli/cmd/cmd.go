package cmd

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ardnew/interp/interp"
	"github.com/ardnew/interp/log"
)

// Identifiers of kong variables shared between the CLI and its commands.
const (
	ConfigIdentifier = "config"
	CacheIdentifier  = "cache"
)

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// Session carries what every command needs: a configured compiler and the
// sources of the data context.
type Session struct {
	Interp    *interp.Interpolator
	Logger    log.Logger
	Stdout    io.Writer
	Stdin     io.Reader
	Set       map[string]string
	DataFiles []string
}

// Data loads the data files and applies the --set overrides.
func (s *Session) Data() (map[string]any, error) {
	return LoadData(s.DataFiles, s.Set)
}

func (s *Session) stdout() io.Writer {
	if s.Stdout != nil {
		return s.Stdout
	}

	return os.Stdout
}

func (s *Session) stdin() io.Reader {
	if s.Stdin != nil {
		return s.Stdin
	}

	return os.Stdin
}

type sessionKey struct{}

// WithSession returns a new context.Context containing s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

func sessionFrom(ctx context.Context) (*Session, error) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	if !ok || s == nil {
		return nil, ErrNoSession
	}

	return s, nil
}

// readTemplate reads the template at path, or standard input for "-".
func (s *Session) readTemplate(path string) (string, error) {
	var (
		data []byte
		err  error
	)

	if path == "" || path == stdinSource {
		data, err = io.ReadAll(s.stdin())
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return "", ErrReadInput.Wrap(err)
	}

	return string(data), nil
}
