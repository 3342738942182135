// Package cmd implements the interp subcommands: render, check, init and
// the interactive repl entry point.
package cmd
