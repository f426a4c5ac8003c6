package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"foyer/internal/amqp"
	"foyer/internal/auth"
	"foyer/internal/backend"
	"foyer/internal/budget"
	"foyer/internal/config"
	applog "foyer/internal/log"
	"foyer/internal/server"
	"foyer/internal/service"
	"foyer/internal/store/postgres"
)

func main() {
	// .env is for local development; absent in containers.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	backends, err := backend.Setup(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize backends", "error", err)
		os.Exit(1)
	}
	defer backends.Close()

	var publisher service.ChangePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	opts := server.Options{
		Manager:           budget.NewManager(backends.Factory),
		Service:           service.New(backends.Feed, publisher),
		Logger:            logger.Logger,
		SnapshotBackend:   cfg.SnapshotBackend,
		FeedBackend:       cfg.FeedBackend,
		AuthRatePerMinute: cfg.AuthRatePerMinute,
		AuthRateBurst:     cfg.AuthRateBurst,
	}
	if backends.Pool != nil {
		opts.Users = postgres.NewUserRepository(backends.Pool)
		opts.Tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	}

	e := server.New(opts)
	httpServer := server.NewHTTPServer(cfg.Port, e)

	go func() {
		if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	logger.Info("Server started",
		"port", cfg.Port,
		"snapshot_backend", cfg.SnapshotBackend,
		"feed_backend", cfg.FeedBackend)

	shutdownSignal := make(chan os.Signal, 1)
	signal.Notify(shutdownSignal, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdownSignal
	logger.Info("Shutdown signal received", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
