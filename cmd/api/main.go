package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jwebster45206/gatekeeper/internal/config"
	"github.com/jwebster45206/gatekeeper/internal/engine"
	"github.com/jwebster45206/gatekeeper/internal/handlers"
	"github.com/jwebster45206/gatekeeper/internal/logger"
	"github.com/jwebster45206/gatekeeper/internal/middleware"
	"github.com/jwebster45206/gatekeeper/internal/services"
	"github.com/jwebster45206/gatekeeper/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Gatekeeper API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"oracle_provider", cfg.OracleProvider,
		"oracle_model", cfg.OracleModel)

	var oracle services.OracleService
	switch strings.ToLower(cfg.OracleProvider) {
	case "anthropic":
		if cfg.OracleAPIKey == "" {
			log.Error("Oracle API key is required when using anthropic provider")
			os.Exit(1)
		}
		oracle = services.NewAnthropicService(cfg.OracleAPIKey, cfg.OracleModel, log)
		log.Info("Using Anthropic oracle provider")
	case "openai":
		if cfg.OracleAPIKey == "" {
			log.Error("Oracle API key is required when using openai provider")
			os.Exit(1)
		}
		oracle = services.NewOpenAIService(cfg.OracleAPIKey, cfg.OracleModel, log)
		log.Info("Using OpenAI oracle provider")
	case "openrouter":
		if cfg.OracleAPIKey == "" {
			log.Error("Oracle API key is required when using openrouter provider")
			os.Exit(1)
		}
		oracle = services.NewOpenRouterService(cfg.OracleAPIKey, cfg.OracleModel, log)
		log.Info("Using OpenRouter oracle provider")
	case "custom":
		if cfg.OracleBaseURL == "" {
			log.Error("ORACLE_BASE_URL is required when using custom provider")
			os.Exit(1)
		}
		oracle = services.NewOpenAIService(cfg.OracleAPIKey, cfg.OracleModel, log).
			WithBaseURL(cfg.OracleBaseURL)
		log.Info("Using custom OpenAI-compatible oracle provider", "base_url", cfg.OracleBaseURL)
	default:
		log.Error("Invalid oracle provider specified",
			"provider", cfg.OracleProvider,
			"supported", []string{"anthropic", "openai", "openrouter", "custom"})
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	eng := engine.NewEngine(store, oracle, log)
	if err := eng.Bootstrap(context.Background()); err != nil {
		log.Error("Failed to bootstrap engine", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	conversationHandler := handlers.NewConversationHandler(eng, log)
	mux.Handle("/v1/conversations", conversationHandler)
	mux.Handle("/v1/conversations/", conversationHandler)

	settingsHandler := handlers.NewSettingsHandler(eng, log)
	mux.Handle("/v1/settings", settingsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	eng.Close()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
