// Package service orchestrates the external feed and the budget store:
// full-feed reloads and the append-then-reload write path.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"foyer/internal/budget"
	"foyer/internal/core"
	"foyer/internal/feed"
	"foyer/internal/reconcile"
)

// ChangePublisher notifies interested parties that the feed changed.
// Publishing is best effort; the write path never fails on it.
type ChangePublisher interface {
	PublishFeedChanged(ctx context.Context, reason string) error
}

// EntryInput is one feed entry as submitted through the API, amounts
// still in wire form.
type EntryInput struct {
	Type       core.FeedType
	Owner      core.Owner
	Category   string
	Amount     string
	Account    string
	Comment    string
	MonthIndex int
}

type BudgetService struct {
	feed      feed.Feed
	publisher ChangePublisher
	now       func() time.Time
}

func New(f feed.Feed, publisher ChangePublisher) *BudgetService {
	return &BudgetService{
		feed:      f,
		publisher: publisher,
		now:       time.Now,
	}
}

// Reload reads the whole feed and replaces the store's twelve months
// with what it finds. A fetch error leaves the store untouched.
func (s *BudgetService) Reload(ctx context.Context, store *budget.Store) error {
	grid, err := s.feed.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}

	rows := reconcile.ParseGrid(grid)
	store.ReplaceMonths(ctx, reconcile.BuildMonths(rows))

	slog.InfoContext(ctx, "Feed reloaded", "rows", len(rows))
	return nil
}

// SubmitEntry appends one entry to the feed, then reloads the whole
// feed into the store so local state mirrors what the feed accepted.
func (s *BudgetService) SubmitEntry(ctx context.Context, store *budget.Store, in EntryInput) error {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return err
	}
	if !in.Type.Valid() {
		return fmt.Errorf("unknown entry type %q", in.Type)
	}
	if !in.Owner.Valid() {
		return core.ErrInvalidOwner
	}

	row, err := reconcile.NewRow(in.Type, in.Owner, in.Category, amount, in.Account, in.Comment, in.MonthIndex, s.now())
	if err != nil {
		return err
	}

	if err := s.feed.Append(ctx, reconcile.Cells(row)); err != nil {
		return fmt.Errorf("append feed row: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishFeedChanged(ctx, "entry-appended"); err != nil {
			slog.WarnContext(ctx, "Failed to publish feed change", "error", err)
		}
	}

	return s.Reload(ctx, store)
}

// Rows returns the parsed feed rows, header dropped.
func (s *BudgetService) Rows(ctx context.Context) ([]core.FeedRow, error) {
	grid, err := s.feed.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	return reconcile.ParseGrid(grid), nil
}
