package config

import (
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string

	// Oracle backend selection. Provider is one of "anthropic", "openai",
	// "openrouter", "custom"; the dialect is chosen by provider identity,
	// never auto-detected.
	OracleProvider string
	OracleModel    string
	OracleAPIKey   string
	OracleBaseURL  string // optional override for openai-compatible backends
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:       getEnv("REDIS_URL", "localhost:6379"),
		OracleProvider: getEnv("ORACLE_PROVIDER", "openrouter"),
		OracleModel:    getEnv("ORACLE_MODEL", ""),
		OracleAPIKey:   getEnv("ORACLE_API_KEY", ""),
		OracleBaseURL:  getEnv("ORACLE_BASE_URL", ""),
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
