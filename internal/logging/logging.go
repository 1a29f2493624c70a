// Package logging provides structured logging setup for dreamdoor.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Setup initializes the default slog logger on stderr, leaving stdout
// to command output.
func Setup(devMode bool) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, devMode)))
}

// NewHandler returns the handler Setup installs, writing to w.
// Dev mode uses tint's coloured console output at debug level; prod uses
// JSON at info level.
func NewHandler(w io.Writer, devMode bool) slog.Handler {
	if devMode {
		return tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "15:04:05",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
}
