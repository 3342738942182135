package interp

import (
	"log/slog"

	"github.com/ardnew/interp/log"
)

// ErrorSink receives errors raised while rendering a template.
type ErrorSink interface {
	Report(err error)
}

// SinkFunc adapts a function to the [ErrorSink] interface.
type SinkFunc func(err error)

// Report calls f(err).
func (f SinkFunc) Report(err error) { f(err) }

// LogSink returns an [ErrorSink] that logs each error at error level.
func LogSink(logger log.Logger) ErrorSink {
	return SinkFunc(func(err error) {
		logger.Error("render failed", slog.Any("error", err))
	})
}

// Discard is an [ErrorSink] that ignores every error.
var Discard ErrorSink = SinkFunc(func(error) {})
