// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package newsdex

import (
	"log/slog"

	"github.com/poiesic/newsdex/ai"
	"github.com/poiesic/newsdex/ai/openai"
	"github.com/poiesic/newsdex/eviction"
	"github.com/poiesic/newsdex/fetch"
	"github.com/poiesic/newsdex/ingestion"
	"github.com/poiesic/newsdex/reembed"
	"github.com/poiesic/newsdex/search"
	"github.com/poiesic/newsdex/sources"
	"github.com/poiesic/newsdex/storage"
	"github.com/poiesic/newsdex/storage/badger"
)

type Database struct {
	backend    *badger.Backend
	docRepo    storage.DocumentRepository
	provider   ai.Provider
	fetcher    fetch.Fetcher
	normalizer *sources.Normalizer
	logger     *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig   *ai.Config
	provider   ai.Provider
	fetcher    fetch.Fetcher
	normalizer *sources.Normalizer
}

// WithAIConfig overrides the AI endpoint configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithProvider supplies a pre-built AI provider instead of constructing one
// from the AI configuration.
func WithProvider(provider ai.Provider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithFetcher supplies a custom article fetcher.
// Default is an HTTP fetcher with standard rate limiting.
func WithFetcher(fetcher fetch.Fetcher) DatabaseOption {
	return func(o *databaseOptions) {
		o.fetcher = fetcher
	}
}

// WithNormalizer supplies a custom feed-name normalizer.
// Default is the built-in feed table.
func WithNormalizer(normalizer *sources.Normalizer) DatabaseOption {
	return func(o *databaseOptions) {
		o.normalizer = normalizer
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	// Create document repository
	docRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	// Create AI provider with configured settings
	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			docRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	fetcher := options.fetcher
	if fetcher == nil {
		fetcher = fetch.NewHTTPFetcher()
	}

	normalizer := options.normalizer
	if normalizer == nil {
		normalizer = sources.NewDefaultNormalizer()
	}

	return &Database{
		backend:    backend,
		docRepo:    docRepo,
		provider:   provider,
		fetcher:    fetcher,
		normalizer: normalizer,
		logger:     slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := db.docRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

func (db *Database) Provider() ai.Provider {
	return db.provider
}

func (db *Database) Normalizer() *sources.Normalizer {
	return db.normalizer
}

// NewCoordinator builds an ingestion coordinator over the database's
// repository, fetcher and embedder. Bias classification is enabled when the
// provider supplies a classifier.
func (db *Database) NewCoordinator(opts ...ingestion.Option) (*ingestion.Coordinator, error) {
	if classifier := db.provider.BiasClassifier(); classifier != nil {
		opts = append([]ingestion.Option{ingestion.WithBiasClassifier(classifier)}, opts...)
	}
	return ingestion.NewCoordinator(db.docRepo, db.fetcher, db.provider.Embedder(), db.normalizer, opts...)
}

func (db *Database) NewEngine(opts ...search.Option) (*search.Engine, error) {
	return search.NewEngine(db.docRepo, opts...)
}

func (db *Database) NewSweeper(opts ...eviction.Option) (*eviction.Sweeper, error) {
	return eviction.NewSweeper(db.docRepo, opts...)
}

func (db *Database) NewReembedder(config *reembed.Config, opts ...reembed.Option) (*reembed.Reembedder, error) {
	return reembed.NewReembedder(db.docRepo, db.provider.Embedder(), config, opts...)
}
