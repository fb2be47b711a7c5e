package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. JSON to stdout so log shippers need
// no parsing configuration.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
