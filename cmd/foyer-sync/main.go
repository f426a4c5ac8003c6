package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"foyer/internal/amqp"
	"foyer/internal/backend"
	"foyer/internal/budget"
	"foyer/internal/config"
	applog "foyer/internal/log"
	"foyer/internal/server"
	"foyer/internal/service"
	"foyer/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting foyer-sync")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backends, err := backend.Setup(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize backends", "error", err)
		os.Exit(1)
	}
	defer backends.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	// The worker reconciles the single local store; per-user stores
	// only exist behind the authenticated API.
	manager := budget.NewManager(backends.Factory)
	store, err := manager.Store(ctx, server.LocalUserID)
	if err != nil {
		logger.Error("Failed to open budget store", "error", err)
		os.Exit(1)
	}

	svc := service.New(backends.Feed, nil)
	syncWorker := worker.NewSyncWorker(svc, store)

	// Initial reconciliation so a fresh store catches up before the
	// first message arrives.
	if err := svc.Reload(ctx, store); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return syncWorker.Run(gctx, amqpClient, cfg.SyncSchedule)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
