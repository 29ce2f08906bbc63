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


package ingestion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/newsdex/ai"
	"github.com/poiesic/newsdex/core"
	"github.com/poiesic/newsdex/fetch"
	"github.com/poiesic/newsdex/sources"
	"github.com/poiesic/newsdex/storage"
)

const (
	defaultWorkers       = 4
	defaultProgressEvery = 50
)

// Request is one article to ingest: the feed it was scraped under, its URL,
// and an optional publication date. A supplied date takes precedence over the
// date extracted from the page.
type Request struct {
	Feed        string
	URL         string
	PublishedAt time.Time
}

// Report aggregates the outcome of one Ingest call.
type Report struct {
	// Succeeded is the number of requests stored.
	Succeeded int

	// Failures lists every request that could not be ingested, in request
	// order.
	Failures []Failure

	// Duration is the wall-clock time of the whole batch.
	Duration time.Duration
}

// Coordinator fans ingestion requests out to a fixed-size worker pool.
//
// The request list is split into one contiguous chunk per worker; each chunk
// is processed strictly sequentially by a single worker, so per-worker
// ordering matches request order. Failures are isolated per item.
type Coordinator struct {
	repo       storage.DocumentRepository
	fetcher    fetch.Fetcher
	embedder   ai.Embedder
	classifier ai.BiasClassifier
	normalizer *sources.Normalizer

	pool          *ants.Pool
	workers       int
	progressEvery int
	logger        *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithWorkers sets the worker pool size. Default is 4.
func WithWorkers(n int) Option {
	return func(c *Coordinator) error {
		if n < 1 {
			n = 1
		}
		if c.pool != nil {
			c.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		c.pool = pool
		c.workers = n
		return nil
	}
}

// WithBiasClassifier enables bias scoring of ingested articles.
// Classification failures are logged and the article is stored without a
// score; they never fail the item.
func WithBiasClassifier(classifier ai.BiasClassifier) Option {
	return func(c *Coordinator) error {
		c.classifier = classifier
		return nil
	}
}

// WithProgressEvery sets how many items a worker processes between progress
// log lines. Default is 50.
func WithProgressEvery(n int) Option {
	return func(c *Coordinator) error {
		if n > 0 {
			c.progressEvery = n
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates an ingestion coordinator.
func NewCoordinator(
	repo storage.DocumentRepository,
	fetcher fetch.Fetcher,
	embedder ai.Embedder,
	normalizer *sources.Normalizer,
	opts ...Option,
) (*Coordinator, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}

	pool, err := ants.NewPool(defaultWorkers)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		repo:          repo,
		fetcher:       fetcher,
		embedder:      embedder,
		normalizer:    normalizer,
		pool:          pool,
		workers:       defaultWorkers,
		progressEvery: defaultProgressEvery,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}

	c.logger = c.logger.With("component", "ingestion-coordinator")
	return c, nil
}

// Ingest processes the request batch and reports the outcome.
//
// All feed names are resolved before any worker starts; an unknown feed name
// fails the whole call, since it indicates a configuration gap rather than a
// transient condition. After validation, per-item failures (fetch, embed,
// store) are recorded in the report and never abort sibling items.
func (c *Coordinator) Ingest(ctx context.Context, requests []Request) (*Report, error) {
	start := time.Now()

	// Resolve every feed up front so a configuration gap surfaces before
	// any network traffic.
	resolved := make([]string, len(requests))
	for i, req := range requests {
		name, err := c.normalizer.Normalize(req.Feed)
		if err != nil {
			return nil, err
		}
		resolved[i] = name
	}

	if len(requests) == 0 {
		return &Report{Duration: time.Since(start)}, nil
	}

	// One contiguous chunk per worker. Each chunk writes only its own slot
	// in the result slices, so no mutex is needed.
	chunkSize := (len(requests) + c.workers - 1) / c.workers
	numChunks := (len(requests) + chunkSize - 1) / chunkSize

	chunkFailures := make([][]Failure, numChunks)
	chunkSucceeded := make([]int, numChunks)

	var wg sync.WaitGroup
	for chunk := 0; chunk < numChunks; chunk++ {
		lo := chunk * chunkSize
		hi := min(lo+chunkSize, len(requests))
		chunk := chunk

		wg.Add(1)
		task := func() {
			defer wg.Done()
			c.processChunk(ctx, chunk, requests[lo:hi], resolved[lo:hi],
				&chunkSucceeded[chunk], &chunkFailures[chunk])
		}
		if err := c.pool.Submit(task); err != nil {
			// Pool rejected the task (released or overloaded); run the
			// chunk on the calling goroutine instead of dropping it.
			c.logger.Warn("pool submit failed, running chunk inline", "chunk", chunk, "err", err)
			task()
		}
	}
	wg.Wait()

	report := &Report{Duration: time.Since(start)}
	for chunk := 0; chunk < numChunks; chunk++ {
		report.Succeeded += chunkSucceeded[chunk]
		report.Failures = append(report.Failures, chunkFailures[chunk]...)
	}

	c.logger.Info("ingestion complete",
		"requested", len(requests),
		"succeeded", report.Succeeded,
		"failed", len(report.Failures),
		"duration", report.Duration)
	return report, nil
}

func (c *Coordinator) processChunk(ctx context.Context, worker int, requests []Request, resolved []string, succeeded *int, failures *[]Failure) {
	for i, req := range requests {
		if err := ctx.Err(); err != nil {
			*failures = append(*failures, Failure{URL: req.URL, Stage: StageFetch, Err: err})
			continue
		}

		if err := c.processItem(ctx, req, resolved[i]); err != nil {
			var failure Failure
			if !errors.As(err, &failure) {
				failure = Failure{URL: req.URL, Stage: StageStore, Err: err}
			}
			c.logger.Warn("failed to ingest article",
				"worker", worker,
				"url", failure.URL,
				"stage", failure.Stage,
				"err", failure.Err)
			*failures = append(*failures, failure)
			continue
		}
		*succeeded++

		if done := i + 1; done%c.progressEvery == 0 {
			c.logger.Info("ingestion progress", "worker", worker, "completed", done, "total", len(requests))
		}
	}
}

// processItem runs the per-article pipeline: fetch, embed (or reuse),
// classify, validate, store.
func (c *Coordinator) processItem(ctx context.Context, req Request, source string) error {
	article, err := c.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		return Failure{URL: req.URL, Stage: StageFetch, Err: err}
	}

	fingerprint := core.FingerprintText(article.Text)

	// Re-ingesting an unchanged article reuses the stored embedding rather
	// than paying for another encoder call.
	var vector []float32
	if existing, getErr := c.repo.Get(ctx, req.URL); getErr == nil &&
		existing.Fingerprint == fingerprint && len(existing.Vector) > 0 {
		vector = existing.Vector
		c.logger.Debug("unchanged article, reusing stored embedding", "url", req.URL)
	}

	if vector == nil {
		vector, err = c.embedder.EmbedText(ctx, article.Text)
		if err != nil {
			return Failure{URL: req.URL, Stage: StageEmbed, Err: err}
		}
	}

	// A date supplied with the request wins over the extracted one.
	published := req.PublishedAt
	if published.IsZero() {
		published = article.PublishedAt
	}

	var biasScore *float64
	if c.classifier != nil {
		score, classifyErr := c.classifier.ClassifyBias(ctx, article.Text)
		if classifyErr != nil {
			c.logger.Warn("bias classification failed, storing without score",
				"url", req.URL, "err", classifyErr)
		} else {
			biasScore = &score
		}
	}

	doc := &core.Document{
		URL:         req.URL,
		Text:        article.Text,
		Source:      source,
		Authors:     article.Authors,
		Title:       article.Title,
		PublishedAt: published.UTC(),
		Vector:      vector,
		BiasScore:   biasScore,
		Fingerprint: fingerprint,
	}
	if err := core.ValidateDocument(doc); err != nil {
		return Failure{URL: req.URL, Stage: StageValidate, Err: err}
	}

	if err := c.repo.Upsert(ctx, doc); err != nil {
		return Failure{URL: req.URL, Stage: StageStore, Err: err}
	}
	return nil
}

// Release releases the worker pool.
// The coordinator should not be used after calling Release.
func (c *Coordinator) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}
