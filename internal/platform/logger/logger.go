package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Level defaults to info;
// set CARECOIN_LOG_LEVEL=debug to see rejected-operation traffic.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("CARECOIN_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
