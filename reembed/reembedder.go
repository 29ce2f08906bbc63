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


// Package reembed re-encodes every stored document with a new embedder, for
// example after switching encoder models. When the new encoder's dimension
// differs from the store's, the store-wide dimension marker is rewritten
// before the first re-encoded document lands.
//
// Reembedding assumes exclusive access to the store; no ingestion or
// retrieval should run concurrently.
package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/newsdex/ai"
	"github.com/poiesic/newsdex/core"
	"github.com/poiesic/newsdex/storage"
)

// Config holds configuration for the reembedding operation.
type Config struct {
	// BatchSize is the number of documents sent to the encoder per call
	BatchSize int

	// MaxRetries is the maximum number of attempts per encoder call
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:  100,
		MaxRetries: 3,
		RetryDelay: 1 * time.Second,
	}
}

// Report aggregates the outcome of one reembedding run.
type Report struct {
	// Processed is the number of documents re-encoded and stored.
	Processed int

	// Corrupt is the number of unreadable records skipped by the scan.
	Corrupt int

	// Dimension is the new encoder's vector dimension.
	Dimension int

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}

// ProgressFunc receives (processed, total) after every stored batch.
type ProgressFunc func(processed, total int)

// Reembedder re-encodes all stored documents with a configured embedder.
type Reembedder struct {
	repo       storage.DocumentRepository
	embedder   ai.Embedder
	config     *Config
	onProgress ProgressFunc
	logger     *slog.Logger
}

// Option configures a Reembedder.
type Option func(*Reembedder)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Reembedder) {
		r.onProgress = fn
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reembedder) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewReembedder creates a new reembedder.
func NewReembedder(repo storage.DocumentRepository, embedder ai.Embedder, config *Config, opts ...Option) (*Reembedder, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	r := &Reembedder{
		repo:     repo,
		embedder: embedder,
		config:   config,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.logger.With("component", "reembedder")
	return r, nil
}

// Run re-encodes every readable document and stores it back.
// Corrupt records are skipped, matching scan semantics elsewhere.
func (r *Reembedder) Run(ctx context.Context) (*Report, error) {
	start := time.Now()

	docs, stats, err := r.repo.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning documents: %w", err)
	}

	report := &Report{Corrupt: stats.Corrupt}
	total := len(docs)
	if total == 0 {
		r.logger.Info("no documents to reembed")
		report.Duration = time.Since(start)
		return report, nil
	}

	r.logger.Info("starting reembedding", "documents", total, "batchSize", r.config.BatchSize)

	for lo := 0; lo < total; lo += r.config.BatchSize {
		hi := min(lo+r.config.BatchSize, total)
		batch := docs[lo:hi]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}

		var vectors [][]float32
		err := RetryWithBackoff(ctx, func() error {
			var embedErr error
			vectors, embedErr = r.embedder.EmbedTexts(ctx, texts)
			return embedErr
		}, r.config.MaxRetries, r.config.RetryDelay)
		if err != nil {
			return report, fmt.Errorf("embedding batch at offset %d: %w", lo, err)
		}
		if len(vectors) != len(batch) {
			return report, fmt.Errorf("embedding batch at offset %d: got %d vectors for %d texts",
				lo, len(vectors), len(batch))
		}

		// The first batch establishes the new dimension; rewrite the
		// store marker before any new-width vector is stored.
		if report.Dimension == 0 {
			if len(vectors[0]) == 0 {
				return report, storage.ErrEmptyVector
			}
			report.Dimension = len(vectors[0])
			if err := r.resetDimension(ctx, report.Dimension); err != nil {
				return report, err
			}
		}

		for i, doc := range batch {
			if len(vectors[i]) != report.Dimension {
				return report, fmt.Errorf("%w: got %d, want %d",
					ErrInconsistentDimension, len(vectors[i]), report.Dimension)
			}
			doc.Vector = vectors[i]
			doc.Fingerprint = core.FingerprintText(doc.Text)

			if err := r.repo.Upsert(ctx, doc); err != nil {
				return report, fmt.Errorf("storing %s: %w", doc.URL, err)
			}
			report.Processed++
		}

		if r.onProgress != nil {
			r.onProgress(report.Processed, total)
		}
	}

	report.Duration = time.Since(start)
	r.logger.Info("reembedding complete",
		"processed", report.Processed,
		"dimension", report.Dimension,
		"duration", report.Duration)
	return report, nil
}

func (r *Reembedder) resetDimension(ctx context.Context, dim int) error {
	current, err := r.repo.Dimension(ctx)
	if err != nil {
		return err
	}
	if current == dim {
		return nil
	}

	resetter, ok := r.repo.(storage.DimensionResetter)
	if !ok {
		return fmt.Errorf("store holds %d-dimensional vectors and repository cannot reset to %d: %w",
			current, dim, storage.ErrDimensionMismatch)
	}

	r.logger.Info("resetting store dimension", "from", current, "to", dim)
	return resetter.ResetDimension(ctx, dim)
}
