// Package backend builds the configured feed and snapshot adapters.
package backend

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"foyer/internal/budget"
	"foyer/internal/config"
	"foyer/internal/feed"
	feedgoogle "foyer/internal/feed/google"
	feedhttp "foyer/internal/feed/httpapi"
	feedmem "foyer/internal/feed/memory"
	"foyer/internal/store/localfile"
	"foyer/internal/store/postgres"
	"foyer/internal/store/sqlite"
)

// Backends bundles the adapters selected by configuration. Pool is
// non-nil only for the postgres snapshot backend, which is also the
// only multi-user one.
type Backends struct {
	Feed    feed.Feed
	Factory budget.PersisterFactory
	Pool    *pgxpool.Pool

	closers []func() error
}

func Setup(ctx context.Context, cfg *config.Config) (*Backends, error) {
	b := &Backends{}

	switch cfg.FeedBackend {
	case "http":
		b.Feed = feedhttp.New(cfg.FeedURL)
	case "sheets":
		cli, err := feedgoogle.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			return nil, fmt.Errorf("initialize sheets feed: %w", err)
		}
		b.Feed = cli
	default:
		b.Feed = feedmem.New()
	}

	switch cfg.SnapshotBackend {
	case "sqlite":
		store, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		b.Factory = func(string) budget.Persister { return store }
	case "postgres":
		pool, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres pool: %w", err)
		}
		b.Pool = pool
		b.closers = append(b.closers, func() error { pool.Close(); return nil })
		b.Factory = func(userID string) budget.Persister {
			return postgres.NewForUser(pool, userID)
		}
	default:
		store := localfile.New(cfg.SnapshotFilePath)
		b.Factory = func(string) budget.Persister { return store }
	}

	return b, nil
}

func (b *Backends) Close() error {
	var firstErr error
	for _, close := range b.closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
