package storage

import (
	"context"
	"time"

	"github.com/poiesic/newsdex/core"
)

// ScanStats reports what a full or range scan encountered.
type ScanStats struct {
	// Scanned is the number of records visited, including corrupt ones.
	Scanned int
	// Corrupt is the number of records that could not be decoded (or carry
	// an embedding of the wrong dimension) and were skipped.
	Corrupt int
}

// DocumentRepository provides operations for the news document store.
// Implementations must be thread-safe and support concurrent access;
// upserts from different ingestion workers must be serialized so the last
// writer for a given URL wins with no partial writes visible to readers.
type DocumentRepository interface {
	// Upsert inserts or fully replaces the document keyed by doc.URL.
	// The first stored document fixes the store's embedding dimension;
	// later upserts with a different dimension fail with
	// ErrDimensionMismatch.
	Upsert(ctx context.Context, doc *core.Document) error

	// Get retrieves a document by URL.
	// Returns ErrNotFound if the document doesn't exist and a
	// CorruptRecordError if the stored record cannot be decoded.
	Get(ctx context.Context, url string) (*core.Document, error)

	// Delete removes the document if present; deleting a missing URL is a
	// no-op.
	Delete(ctx context.Context, url string) error

	// All returns every stored document in key order. Key order is stable
	// across calls and serves as the tie-break order for retrieval.
	// Corrupt records are skipped and counted, never fatal to the scan.
	All(ctx context.Context) ([]*core.Document, ScanStats, error)

	// ByDateRange returns documents whose publication date falls within
	// [start, end], both bounds inclusive, using the date index.
	// Documents with an unknown publication date are never returned.
	ByDateRange(ctx context.Context, start, end time.Time) ([]*core.Document, ScanStats, error)

	// Dimension reports the store's established embedding dimension.
	// Returns 0 while the store has never held a document.
	Dimension(ctx context.Context) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}

// DimensionResetter is implemented by repositories that can rewrite the
// store's embedding dimension marker. Reembedding uses it when a new encoder
// changes the dimension; callers must ensure no concurrent upserts run.
type DimensionResetter interface {
	ResetDimension(ctx context.Context, dim int) error
}
