// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Time formatting, caller information, output format, and colorized
// output are applied at logger creation time using functional options.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("template compiled", slog.String("source", src))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// An existing logger can be reconfigured with [Logger.Wrap], and the
// package-level logger with [Config].
//
// # Context-Aware Logging
//
// Each level has a context-aware and a context-unaware variant. The
// context-unaware variants use [DefaultContextProvider], which returns
// [context.TODO] by default.
//
// # Levels
//
// [LevelTrace], [LevelDebug], [LevelInfo], [LevelWarn], and [LevelError].
// Messages below the configured level are discarded.
//
// # Output Formats
//
// [FormatJSON] (default) and [FormatText], each with an optional pretty
// (colorized) rendition enabled by [WithPretty].
package log
