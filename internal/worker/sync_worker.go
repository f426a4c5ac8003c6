// Package worker keeps the persisted snapshot in step with the
// external feed: it reacts to feed-changed messages and runs a
// scheduled full reconciliation as a safety net.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"foyer/internal/amqp"
	"foyer/internal/budget"
	"foyer/internal/service"
)

type SyncWorker struct {
	svc   *service.BudgetService
	store *budget.Store
}

func NewSyncWorker(svc *service.BudgetService, store *budget.Store) *SyncWorker {
	return &SyncWorker{svc: svc, store: store}
}

// HandleFeedChanged reloads the whole feed into the store. The store
// persists the replaced months through its own persister.
func (w *SyncWorker) HandleFeedChanged(ctx context.Context, msg *amqp.FeedChangedMessage) error {
	slog.InfoContext(ctx, "Processing feed changed message", "reason", msg.Reason)

	if err := w.svc.Reload(ctx, w.store); err != nil {
		return fmt.Errorf("reload feed: %w", err)
	}
	if err := w.store.SyncErr(); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// Run consumes feed-changed messages and reconciles on the given cron
// schedule until the context is cancelled.
func (w *SyncWorker) Run(ctx context.Context, client *amqp.Client, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := w.svc.Reload(ctx, w.store); err != nil {
			slog.ErrorContext(ctx, "Scheduled reconciliation failed", "error", err)
			return
		}
		slog.InfoContext(ctx, "Scheduled reconciliation completed")
	})
	if err != nil {
		return fmt.Errorf("add cron schedule %q: %w", schedule, err)
	}
	c.Start()
	defer c.Stop()

	return client.ConsumeFeedChanged(ctx, func(msg *amqp.FeedChangedMessage) error {
		return w.HandleFeedChanged(ctx, msg)
	})
}
