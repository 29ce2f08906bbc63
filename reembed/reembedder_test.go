package reembed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	aimock "github.com/poiesic/newsdex/ai/mock"
	"github.com/poiesic/newsdex/core"
	"github.com/poiesic/newsdex/storage"
	"github.com/poiesic/newsdex/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedDocuments(t *testing.T, repo storage.DocumentRepository, n, dim int) {
	t.Helper()
	for i := 0; i < n; i++ {
		vector := make([]float32, dim)
		vector[i%dim] = 1
		err := repo.Upsert(context.Background(), &core.Document{
			URL:    fmt.Sprintf("https://n.example/%d", i),
			Text:   fmt.Sprintf("article body %d", i),
			Source: "Reuters",
			Vector: vector,
		})
		require.NoError(t, err)
	}
}

func newTestRepo(t *testing.T) storage.DocumentRepository {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestRun_ReembedsAllDocuments(t *testing.T) {
	repo := newTestRepo(t)
	seedDocuments(t, repo, 7, 8)

	// New encoder with a different dimension.
	embedder := aimock.NewEmbedder()
	embedder.Dim = 4

	config := &Config{BatchSize: 3, MaxRetries: 1, RetryDelay: time.Millisecond}
	reembedder, err := NewReembedder(repo, embedder, config)
	require.NoError(t, err)

	ctx := context.Background()
	report, err := reembedder.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 7, report.Processed)
	assert.Equal(t, 4, report.Dimension)

	dim, err := repo.Dimension(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, dim)

	docs, stats, err := repo.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Corrupt)
	require.Len(t, docs, 7)
	for _, doc := range docs {
		assert.Len(t, doc.Vector, 4)
	}
}

func TestRun_EmptyStore(t *testing.T) {
	repo := newTestRepo(t)

	reembedder, err := NewReembedder(repo, aimock.NewEmbedder(), nil)
	require.NoError(t, err)

	report, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 0, report.Dimension)
}

func TestRun_ProgressCallback(t *testing.T) {
	repo := newTestRepo(t)
	seedDocuments(t, repo, 10, 4)

	var updates [][2]int
	config := &Config{BatchSize: 4, MaxRetries: 1, RetryDelay: time.Millisecond}
	reembedder, err := NewReembedder(repo, aimock.NewEmbedder(), config,
		WithProgress(func(processed, total int) {
			updates = append(updates, [2]int{processed, total})
		}))
	require.NoError(t, err)

	_, err = reembedder.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, updates, 3)
	assert.Equal(t, [2]int{4, 10}, updates[0])
	assert.Equal(t, [2]int{8, 10}, updates[1])
	assert.Equal(t, [2]int{10, 10}, updates[2])
}

func TestRun_RetriesTransientEncoderFailures(t *testing.T) {
	repo := newTestRepo(t)
	seedDocuments(t, repo, 2, 4)

	attempts := 0
	embedder := aimock.NewEmbedder()
	inner := aimock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		attempts++
		if attempts == 1 {
			return nil, errors.New("encoder warming up")
		}
		return inner.EmbedTexts(ctx, texts)
	}

	config := &Config{BatchSize: 10, MaxRetries: 3, RetryDelay: time.Millisecond}
	reembedder, err := NewReembedder(repo, embedder, config)
	require.NoError(t, err)

	report, err := reembedder.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 2, attempts)
}

func TestRun_EncoderFailureAfterRetriesAborts(t *testing.T) {
	repo := newTestRepo(t)
	seedDocuments(t, repo, 2, 4)

	embedder := aimock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("encoder down")
	}

	config := &Config{BatchSize: 10, MaxRetries: 2, RetryDelay: time.Millisecond}
	reembedder, err := NewReembedder(repo, embedder, config)
	require.NoError(t, err)

	_, err = reembedder.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoder down")
}

func TestNewReembedder_Validation(t *testing.T) {
	repo := newTestRepo(t)

	_, err := NewReembedder(nil, aimock.NewEmbedder(), nil)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewReembedder(repo, nil, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
