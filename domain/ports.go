package domain

import "context"

// NewsRepository is the persistence port for the bounded news table.
type NewsRepository interface {
	Ensure(ctx context.Context) error
	// InsertIgnore writes the item unless a row with the same
	// (source, title, link) already exists. It reports whether a row was
	// actually inserted.
	InsertIgnore(ctx context.Context, item NewsItem) (bool, error)
	// Prune deletes every row outside the k most recent by published time.
	// It must be safe to run concurrently with inserts.
	Prune(ctx context.Context, k int) error
	ListRecent(ctx context.Context, limit int) ([]StoredItem, error)
	Count(ctx context.Context) (int, error)
}

// FeedFetcher fetches one source and parses its items.
type FeedFetcher interface {
	Fetch(ctx context.Context, src Source) ([]NewsItem, error)
}

// Ingestor runs one ingestion cycle end to end.
type Ingestor interface {
	Run(ctx context.Context) (IngestReport, error)
}
