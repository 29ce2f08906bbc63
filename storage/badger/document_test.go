package badger

import (
	"context"
	"testing"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/poiesic/newsdex/core"
	"github.com/poiesic/newsdex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument(url string, vector []float32, published time.Time) *core.Document {
	return &core.Document{
		URL:         url,
		Text:        "body text for " + url,
		Source:      "Example News",
		Authors:     []string{"A. Writer"},
		Title:       "title for " + url,
		PublishedAt: published,
		Vector:      vector,
		Fingerprint: core.FingerprintText("body text for " + url),
	}
}

func TestUpsert_InsertAndGet(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	published := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	doc := testDocument("https://news.example.com/a", []float32{1, 0, 0}, published)

	require.NoError(t, repo.Upsert(ctx, doc))

	got, err := repo.Get(ctx, doc.URL)
	require.NoError(t, err)
	assert.Equal(t, doc.URL, got.URL)
	assert.Equal(t, doc.Text, got.Text)
	assert.Equal(t, doc.Authors, got.Authors)
	assert.True(t, got.PublishedAt.Equal(published))
	assert.Equal(t, doc.Vector, got.Vector)
	assert.False(t, got.InsertedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestUpsert_ReplaceIsIdempotentPerURL(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	published := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	first := testDocument("https://news.example.com/a", []float32{1, 0, 0}, published)
	require.NoError(t, repo.Upsert(ctx, first))

	second := testDocument("https://news.example.com/a", []float32{0, 1, 0}, published)
	second.Text = "updated body"
	require.NoError(t, repo.Upsert(ctx, second))

	// Exactly one record remains, carrying the later write's content.
	docs, stats, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 0, stats.Corrupt)
	assert.Equal(t, "updated body", docs[0].Text)
	assert.Equal(t, []float32{0, 1, 0}, docs[0].Vector)

	// The original insertion time survives a replace. Stored times carry
	// microsecond precision.
	assert.True(t, docs[0].InsertedAt.Equal(first.InsertedAt.Truncate(time.Microsecond)))
}

func TestUpsert_DimensionEstablishedByFirstWrite(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	published := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	dim, err := repo.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, dim)

	require.NoError(t, repo.Upsert(ctx, testDocument("https://news.example.com/a", []float32{1, 0, 0}, published)))

	dim, err = repo.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, dim)

	err = repo.Upsert(ctx, testDocument("https://news.example.com/b", []float32{1, 0}, published))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestUpsert_EmptyVectorRejected(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	doc := testDocument("https://news.example.com/a", nil, time.Time{})
	err = repo.Upsert(context.Background(), doc)
	assert.ErrorIs(t, err, storage.ErrEmptyVector)
}

func TestGet_NotFound(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	_, err = repo.Get(context.Background(), "https://news.example.com/missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDelete_RemovesRecordAndIndex(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	published := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	doc := testDocument("https://news.example.com/a", []float32{1, 0, 0}, published)
	require.NoError(t, repo.Upsert(ctx, doc))

	require.NoError(t, repo.Delete(ctx, doc.URL))

	_, err = repo.Get(ctx, doc.URL)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	docs, _, err := repo.ByDateRange(ctx, published.Add(-time.Hour), published.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDelete_MissingIsNoOp(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	assert.NoError(t, repo.Delete(context.Background(), "https://news.example.com/missing"))
}

func TestAll_SkipsCorruptRecords(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	published := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, testDocument("https://news.example.com/a", []float32{1, 0, 0}, published)))
	require.NoError(t, repo.Upsert(ctx, testDocument("https://news.example.com/b", []float32{0, 1, 0}, published)))

	// Plant an undecodable record under the document prefix.
	err = backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set(makeDocumentKey("https://news.example.com/broken"), []byte{0xff}); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)

	docs, stats, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, 3, stats.Scanned)
	assert.Equal(t, 1, stats.Corrupt)
}

func TestGet_WrongDimensionIsCorrupt(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	published := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, testDocument("https://news.example.com/a", []float32{1, 0, 0}, published)))

	// Plant a decodable record whose vector has the wrong dimension.
	rogue := testDocument("https://news.example.com/rogue", []float32{1, 0}, published)
	err = backend.WithTx(func(tx *badgerdb.Txn) error {
		if err := tx.Set(makeDocumentKey(rogue.URL), storage.MarshalDocument(rogue)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	require.NoError(t, err)

	_, err = repo.Get(ctx, rogue.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrCorruptRecord)
	assert.ErrorIs(t, err, storage.ErrDimensionMismatch)
}

func TestByDateRange_InclusiveBounds(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	start := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC)

	onStart := testDocument("https://news.example.com/on-start", []float32{1, 0, 0}, start)
	onEnd := testDocument("https://news.example.com/on-end", []float32{0, 1, 0}, end)
	before := testDocument("https://news.example.com/before", []float32{0, 0, 1}, start.AddDate(0, 0, -1))
	after := testDocument("https://news.example.com/after", []float32{1, 1, 0}, end.AddDate(0, 0, 1))
	undated := testDocument("https://news.example.com/undated", []float32{0, 1, 1}, time.Time{})

	for _, doc := range []*core.Document{onStart, onEnd, before, after, undated} {
		require.NoError(t, repo.Upsert(ctx, doc))
	}

	docs, _, err := repo.ByDateRange(ctx, start, end)
	require.NoError(t, err)

	urls := make([]string, 0, len(docs))
	for _, doc := range docs {
		urls = append(urls, doc.URL)
	}
	assert.ElementsMatch(t, []string{onStart.URL, onEnd.URL}, urls)
}

func TestByDateRange_OrderedByDate(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	base := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Upsert(ctx, testDocument("https://news.example.com/newer", []float32{1, 0}, base.AddDate(0, 0, 2))))
	require.NoError(t, repo.Upsert(ctx, testDocument("https://news.example.com/older", []float32{0, 1}, base)))

	docs, _, err := repo.ByDateRange(ctx, base.AddDate(0, 0, -1), base.AddDate(0, 0, 3))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "https://news.example.com/older", docs[0].URL)
	assert.Equal(t, "https://news.example.com/newer", docs[1].URL)
}

func TestResetDimension(t *testing.T) {
	repo, backend, err := NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	published := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, testDocument("https://news.example.com/a", []float32{1, 0, 0}, published)))

	resetter, ok := repo.(storage.DimensionResetter)
	require.True(t, ok)
	require.NoError(t, resetter.ResetDimension(ctx, 2))

	dim, err := repo.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dim)

	require.NoError(t, repo.Upsert(ctx, testDocument("https://news.example.com/b", []float32{1, 0}, published)))
}

func TestDimension_SurvivesReopen(t *testing.T) {
	tmpDir := t.TempDir()

	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)

	repo, err := NewDocumentRepository(backend)
	require.NoError(t, err)

	ctx := context.Background()
	published := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, testDocument("https://news.example.com/a", []float32{1, 0, 0, 0}, published)))

	require.NoError(t, repo.Close())
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(tmpDir, false)
	require.NoError(t, err)
	defer backend.Close()

	repo, err = NewDocumentRepository(backend)
	require.NoError(t, err)
	defer repo.Close()

	dim, err := repo.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, dim)
}
