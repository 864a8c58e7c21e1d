package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// NewPretty creates a *slog.Logger with the charmbracelet/log handler for
// colorized, human-friendly CLI output. Services use the zap logger; this
// is for interactive commands.
func NewPretty(debug bool, writers ...io.Writer) *slog.Logger {
	var w io.Writer = os.Stdout
	if len(writers) == 1 {
		w = writers[0]
	} else if len(writers) > 1 {
		w = io.MultiWriter(writers...)
	}

	level := charmlog.InfoLevel
	if debug {
		level = charmlog.DebugLevel
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		ReportTimestamp: true,
	})

	return slog.New(handler)
}
