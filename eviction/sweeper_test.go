package eviction

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/newsdex/core"
	"github.com/poiesic/newsdex/storage"
	"github.com/poiesic/newsdex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSweeper(t *testing.T) (*Sweeper, storage.DocumentRepository) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	sweeper, err := NewSweeper(repo)
	require.NoError(t, err)
	return sweeper, repo
}

func storeDoc(t *testing.T, repo storage.DocumentRepository, url string, published time.Time) {
	t.Helper()
	err := repo.Upsert(context.Background(), &core.Document{
		URL:         url,
		Text:        "text",
		Source:      "Reuters",
		PublishedAt: published,
		Vector:      []float32{1, 0},
	})
	require.NoError(t, err)
}

func TestSweep_DeletesOnlyStaleDocuments(t *testing.T) {
	sweeper, repo := newTestSweeper(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	retention := 7 * 24 * time.Hour

	storeDoc(t, repo, "https://n.example/stale", now.Add(-8*24*time.Hour))
	storeDoc(t, repo, "https://n.example/fresh", now.Add(-time.Hour))

	ctx := context.Background()
	report, err := sweeper.Sweep(ctx, retention, now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Retained)
	assert.Equal(t, 0, report.Undated)

	_, err = repo.Get(ctx, "https://n.example/stale")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.Get(ctx, "https://n.example/fresh")
	assert.NoError(t, err)
}

func TestSweep_ExactlyRetentionOldIsKept(t *testing.T) {
	sweeper, repo := newTestSweeper(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	retention := 7 * 24 * time.Hour

	storeDoc(t, repo, "https://n.example/boundary", now.Add(-retention))
	storeDoc(t, repo, "https://n.example/just-over", now.Add(-retention-time.Microsecond))

	ctx := context.Background()
	report, err := sweeper.Sweep(ctx, retention, now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Retained)

	_, err = repo.Get(ctx, "https://n.example/boundary")
	assert.NoError(t, err)

	_, err = repo.Get(ctx, "https://n.example/just-over")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSweep_UndatedDocumentsRetained(t *testing.T) {
	sweeper, repo := newTestSweeper(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	storeDoc(t, repo, "https://n.example/undated", time.Time{})
	storeDoc(t, repo, "https://n.example/ancient", now.AddDate(-1, 0, 0))

	ctx := context.Background()
	report, err := sweeper.Sweep(ctx, 24*time.Hour, now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Undated)

	_, err = repo.Get(ctx, "https://n.example/undated")
	assert.NoError(t, err)
}

func TestSweep_EmptyStore(t *testing.T) {
	sweeper, _ := newTestSweeper(t)

	report, err := sweeper.Sweep(context.Background(), DefaultRetention, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 0, report.Deleted)
	assert.Equal(t, 0, report.Retained)
}

func TestSweep_DefaultRetentionFallback(t *testing.T) {
	sweeper, repo := newTestSweeper(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	storeDoc(t, repo, "https://n.example/six-days", now.Add(-6*24*time.Hour))
	storeDoc(t, repo, "https://n.example/eight-days", now.Add(-8*24*time.Hour))

	// retention <= 0 falls back to the 168h default.
	report, err := sweeper.Sweep(context.Background(), 0, now)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Retained)
}
