package observability

import (
	"log/slog"
	"os"
)

func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	// trace-aware wrapper so log lines carry trace/span ids when present
	logger := slog.New(NewTraceHandler(handler))

	slog.SetDefault(logger)

	return logger
}
