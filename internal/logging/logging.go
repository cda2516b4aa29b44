// Package logging installs the process-wide slog handler. Diagnostics
// go to stderr; stdout is reserved for command JSON.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init installs a text handler at the named level. Unknown or empty
// levels default to warn so normal command runs stay quiet.
func Init(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})))
}
