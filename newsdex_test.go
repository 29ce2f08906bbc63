package newsdex

import (
	"os"
	"path/filepath"
	"testing"

	aimock "github.com/poiesic/newsdex/ai/mock"
	fetchmock "github.com/poiesic/newsdex/fetch/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		// Verify components are initialized
		assert.NotNil(t, db.DocumentRepository())
		assert.NotNil(t, db.Provider())
		assert.NotNil(t, db.Normalizer())
		assert.NotNil(t, db.backend)
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		// Try to create a database at a file path instead of directory
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("custom provider and fetcher", func(t *testing.T) {
		tmpDir := t.TempDir()
		provider := aimock.NewProvider()
		fetcher := fetchmock.NewFetcher()

		db, err := NewDatabase(tmpDir, WithProvider(provider), WithFetcher(fetcher))
		require.NoError(t, err)
		defer db.Close()

		assert.Same(t, provider, db.Provider())
	})
}

func TestDatabase_Close(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir)
	require.NoError(t, err)
	require.NotNil(t, db)

	// Close the database
	err = db.Close()
	assert.NoError(t, err)
}

func TestDatabase_FactoryMethods(t *testing.T) {
	tmpDir := t.TempDir()
	db, err := NewDatabase(tmpDir, WithProvider(aimock.NewProvider()), WithFetcher(fetchmock.NewFetcher()))
	require.NoError(t, err)
	require.NotNil(t, db)
	defer db.Close()

	t.Run("can create ingestion coordinator", func(t *testing.T) {
		coordinator, err := db.NewCoordinator()
		require.NoError(t, err)
		require.NotNil(t, coordinator)
		coordinator.Release()
	})

	t.Run("can create search engine", func(t *testing.T) {
		engine, err := db.NewEngine()
		require.NoError(t, err)
		require.NotNil(t, engine)
	})

	t.Run("can create sweeper", func(t *testing.T) {
		sweeper, err := db.NewSweeper()
		require.NoError(t, err)
		require.NotNil(t, sweeper)
	})

	t.Run("can create reembedder", func(t *testing.T) {
		reembedder, err := db.NewReembedder(nil)
		require.NoError(t, err)
		require.NotNil(t, reembedder)
	})
}
