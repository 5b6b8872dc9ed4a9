package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Constructed once in main
// and passed by handle; no package-level logger state.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
