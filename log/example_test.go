package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/interp/log"
)

func Example_basic() {
	logger := log.Make(os.Stdout, log.WithTimeLayout("none"), log.WithPretty(false))
	logger.Info("template compiled", slog.Int("segments", 3))
	// Output: {"level":"INFO","msg":"template compiled","segments":3}
}

func Example_textFormat() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout("none"),
		log.WithPretty(false))
	logger.Warn("plain text template", slog.String("source", "hello"))
	// Output: level=WARN msg="plain text template" source=hello
}
