// Package cli contains the command line interface for interp.
//
// # Usage
//
// Render a template read from a file or standard input against YAML or JSON
// data, with dotted-key overrides:
//
//	interp -d values.yaml --set user.name=ann greeting.tmpl
//	echo 'Hi {{user.name}}' | interp -d values.yaml
//
// Inspect how a template is split into segments:
//
//	interp check --format yaml greeting.tmpl
//
// Change the expression markers, or require trusted values:
//
//	interp --start-symbol '[[' --end-symbol ']]' page.tmpl
//	interp render --trusted resourceUrl --allow-url 'https://cdn.example.com/**' src.tmpl
//
// # Configuration
//
// Flags may also be set in a YAML file in the user configuration directory
// (see [pkg.ConfigPath]). The init command writes the current flag values to
// that file. Command-line flags override configured values.
package cli
