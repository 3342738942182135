//nolint:gochecknoglobals
package pkg

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the semantic version of the interp module embedded at build time.
var Version = strings.TrimSpace(version)

const (
	// Name is the canonical command and module identifier. It appears in help
	// text and forms the base of the default config and cache paths.
	Name = "interp"
	// Description is a short, human-readable summary used in help output.
	Description = "Template interpolation compiler"
)

// AuthorInfo represents an individual author's name and email address.
type AuthorInfo struct {
	Name  string
	Email string
}

// Author lists the primary author(s) of the project for display in metadata.
var Author = []AuthorInfo{
	{"ardnew", "andrew@ardnew.com"},
}
