package badger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsdex/core"
	"github.com/poiesic/newsdex/storage"
)

// upsertRetries bounds retries of write transactions that lose a conflict
// to a concurrent writer of the same key.
const upsertRetries = 3

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	logger  *slog.Logger

	// dim caches the store's embedding dimension; 0 means not yet
	// established. dimMu serializes the first write of the marker.
	dim   atomic.Int64
	dimMu sync.Mutex
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	r := &DocumentRepository{
		backend: backend,
		logger:  slog.Default().With("component", "document-repository"),
	}

	// Load the dimension marker written by a previous process.
	err := backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(dimensionKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			dim, err := storage.UnmarshalDimension(val)
			if err != nil {
				return err
			}
			r.dim.Store(int64(dim))
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Close releases repository resources.
func (r *DocumentRepository) Close() error {
	return nil
}

// Dimension reports the store's established embedding dimension.
func (r *DocumentRepository) Dimension(ctx context.Context) (int, error) {
	if r.backend.IsClosed() {
		return 0, storage.ErrStorageClosed
	}
	return int(r.dim.Load()), nil
}

// Upsert inserts or fully replaces the document keyed by doc.URL.
func (r *DocumentRepository) Upsert(ctx context.Context, doc *core.Document) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if len(doc.Vector) == 0 {
		return storage.ErrEmptyVector
	}
	if err := r.establishDimension(len(doc.Vector)); err != nil {
		return err
	}

	var err error
	for attempt := 0; attempt <= upsertRetries; attempt++ {
		err = r.upsertOnce(doc)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		// Lost a conflict to a concurrent writer of the same URL;
		// last writer wins, so retry on a fresh snapshot.
		r.logger.Debug("upsert conflict, retrying", "url", doc.URL, "attempt", attempt+1)
	}
	return err
}

func (r *DocumentRepository) upsertOnce(doc *core.Document) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(doc.URL)

		old, readErr := r.readDocument(tx, key)
		switch {
		case readErr == nil && old != nil:
			doc.InsertedAt = old.InsertedAt
		case errors.Is(readErr, storage.ErrCorruptRecord):
			// Replacing an undecodable record; its date index entry
			// cannot be recomputed, so clean by suffix scan.
			if err := deleteDateEntries(tx, doc.URL); err != nil {
				return err
			}
			old = nil
			doc.InsertedAt = time.Time{}
		case readErr != nil:
			return readErr
		}

		now := time.Now().UTC()
		if doc.InsertedAt.IsZero() {
			doc.InsertedAt = now
		}
		doc.UpdatedAt = now

		if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
			return err
		}

		// Maintain the publication-date index. Undated documents are
		// deliberately unindexed.
		if old != nil && !old.PublishedAt.IsZero() && !old.PublishedAt.Equal(doc.PublishedAt) {
			if err := tx.Delete(makeDateKey(old.PublishedAt, doc.URL)); err != nil {
				return err
			}
		}
		if !doc.PublishedAt.IsZero() {
			if err := tx.Set(makeDateKey(doc.PublishedAt, doc.URL), []byte(doc.URL)); err != nil {
				return err
			}
		}

		return tx.Commit()
	}, true)
}

// establishDimension fixes the store-wide embedding dimension on the first
// upsert and rejects mismatches afterwards.
func (r *DocumentRepository) establishDimension(dim int) error {
	if current := r.dim.Load(); current != 0 {
		if int(current) != dim {
			return storage.ErrDimensionMismatch
		}
		return nil
	}

	r.dimMu.Lock()
	defer r.dimMu.Unlock()

	if current := r.dim.Load(); current != 0 {
		if int(current) != dim {
			return storage.ErrDimensionMismatch
		}
		return nil
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(dimensionKey), storage.MarshalDimension(dim)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	r.dim.Store(int64(dim))
	return nil
}

// Get retrieves a single document by URL.
func (r *DocumentRepository) Get(ctx context.Context, url string) (*core.Document, error) {
	if r.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		doc, err := r.readDocument(tx, makeDocumentKey(url))
		if err != nil {
			return err
		}
		if doc == nil {
			return storage.ErrNotFound
		}
		result = doc
		return nil
	}, false)
	return result, err
}

// Delete removes the document if present. Deleting a missing URL is a no-op.
func (r *DocumentRepository) Delete(ctx context.Context, url string) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDocumentKey(url)

		old, err := r.readDocument(tx, key)
		switch {
		case errors.Is(err, storage.ErrCorruptRecord):
			if err := deleteDateEntries(tx, url); err != nil {
				return err
			}
		case err != nil:
			return err
		case old == nil:
			return nil
		case !old.PublishedAt.IsZero():
			if err := tx.Delete(makeDateKey(old.PublishedAt, url)); err != nil {
				return err
			}
		}

		if err := tx.Delete(key); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// All returns every stored document in key order.
func (r *DocumentRepository) All(ctx context.Context) ([]*core.Document, storage.ScanStats, error) {
	var (
		results []*core.Document
		stats   storage.ScanStats
	)
	if r.backend.IsClosed() {
		return nil, stats, storage.ErrStorageClosed
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			stats.Scanned++

			doc, err := r.readDocumentItem(iter.Item())
			if err != nil {
				stats.Corrupt++
				r.logger.Warn("skipping corrupt record", "key", string(iter.Item().Key()), "err", err)
				continue
			}
			results = append(results, doc)
		}
		return nil
	}, false)

	return results, stats, err
}

// ByDateRange returns documents whose publication date falls within
// [start, end], both bounds inclusive.
func (r *DocumentRepository) ByDateRange(ctx context.Context, start, end time.Time) ([]*core.Document, storage.ScanStats, error) {
	var (
		results []*core.Document
		stats   storage.ScanStats
	)
	if r.backend.IsClosed() {
		return nil, stats, storage.ErrStorageClosed
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialDateKey(start)
		// End bound is inclusive at microsecond precision.
		endKey := makePartialDateKey(end.Add(time.Microsecond))
		prefix := []byte(documentDatePrefix)

		iter := tx.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()

		for iter.Seek(startKey); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			if !bytes.HasPrefix(key, prefix) || bytes.Compare(key, endKey) >= 0 {
				break
			}

			var url string
			if err := iter.Item().Value(func(val []byte) error {
				url = string(val)
				return nil
			}); err != nil {
				return err
			}

			stats.Scanned++
			doc, err := r.readDocument(tx, makeDocumentKey(url))
			if err != nil {
				stats.Corrupt++
				r.logger.Warn("skipping corrupt record", "url", url, "err", err)
				continue
			}
			if doc == nil {
				// Dangling index entry; treat as corrupt.
				stats.Corrupt++
				r.logger.Warn("date index entry without record", "url", url)
				continue
			}
			results = append(results, doc)
		}
		return nil
	}, false)

	return results, stats, err
}

// Helper methods

// readDocument reads and decodes a document, returning (nil, nil) when the
// key is absent and a CorruptRecordError when decoding fails.
func (r *DocumentRepository) readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.readDocumentItem(item)
}

func (r *DocumentRepository) readDocumentItem(item *badger.Item) (*core.Document, error) {
	var doc *core.Document
	err := item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	if err != nil {
		return nil, &storage.CorruptRecordError{Key: documentURL(item.Key()), Err: err}
	}

	// An embedding of the wrong dimension is corruption, not a candidate
	// for silent mis-scoring.
	if dim := r.dim.Load(); dim > 0 && len(doc.Vector) != int(dim) {
		return nil, &storage.CorruptRecordError{
			Key: documentURL(item.Key()),
			Err: storage.ErrDimensionMismatch,
		}
	}

	return doc, nil
}

// deleteDateEntries removes all date index entries pointing at a URL.
// Only needed when the primary record is undecodable and its indexed
// timestamp cannot be recomputed.
func deleteDateEntries(tx *badger.Txn, url string) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(documentDatePrefix)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var stale [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		key := iter.Item().Key()
		if bytes.HasSuffix(key, []byte(url)) {
			stale = append(stale, iter.Item().KeyCopy(nil))
		}
	}
	for _, key := range stale {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// ResetDimension rewrites the store's dimension marker. Used by reembedding
// when a new encoder changes the embedding dimension; callers must ensure no
// concurrent upserts are running.
func (r *DocumentRepository) ResetDimension(ctx context.Context, dim int) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	r.dimMu.Lock()
	defer r.dimMu.Unlock()

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(dimensionKey), storage.MarshalDimension(dim)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	r.dim.Store(int64(dim))
	return nil
}
