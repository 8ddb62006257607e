package pkg

import (
	"log/slog"
	"os"
	"strings"
)

// SetupLogger installs a JSON slog handler as the process default.
func SetupLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	logger := slog.New(h).With("service", "photobook-order-bot")
	slog.SetDefault(logger)
	return logger
}
