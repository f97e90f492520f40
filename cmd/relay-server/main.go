package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/policydesk/qbo-relay/cmd/relay-server/handlers"
	"github.com/policydesk/qbo-relay/internal/auth"
	"github.com/policydesk/qbo-relay/internal/config"
	"github.com/policydesk/qbo-relay/internal/qbo"
	"github.com/policydesk/qbo-relay/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	client := qbo.NewClient(qbo.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Environment:  cfg.Environment,
		RedirectURI:  cfg.RedirectURI,
	}, cfg.HTTPTimeout)

	syncer := sync.NewService(client, logger)
	handler := handlers.New(client, syncer, logger)
	guard := auth.NewMiddleware(cfg.AuthSecret)
	if !guard.Enabled() {
		logger.Warn("RELAY_AUTH_SECRET not set; POST endpoints are unauthenticated")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(guard),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("relay server starting",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"qbo_timeout", cfg.HTTPTimeout)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
		os.Exit(1)
	}
}
