package logger

import (
	"log/slog"
	"os"

	"github.com/jwebster45206/gatekeeper/internal/config"
)

// Setup configures the global slog logger based on environment
func Setup(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		// JSON format for production
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Text format for development
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}

// WithConversationID adds conversation ID to logger context
func WithConversationID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With("conversation_id", id)
}
