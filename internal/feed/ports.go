package feed

import "context"

// Ports for the external tabular feed.
type (
	// GridFetcher returns the raw feed grid. Row 0 is the header row;
	// translation into the month model happens in reconcile.
	GridFetcher interface {
		Fetch(ctx context.Context) ([][]string, error)
	}

	// RowAppender appends one positional row to the feed.
	RowAppender interface {
		Append(ctx context.Context, cells []string) error
	}

	// Feed combines both sides of the tabular feed.
	Feed interface {
		GridFetcher
		RowAppender
	}
)
