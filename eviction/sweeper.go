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


// Package eviction purges stored documents older than a retention window.
package eviction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/newsdex/storage"
)

// DefaultRetention is the default document retention window.
const DefaultRetention = 7 * 24 * time.Hour

// ErrRepositoryRequired is returned when a document repository is not provided.
var ErrRepositoryRequired = errors.New("document repository required")

// Report aggregates the outcome of one sweep.
type Report struct {
	// Deleted is the number of documents removed.
	Deleted int

	// Retained is the number of dated documents young enough to keep.
	Retained int

	// Undated is the number of documents kept because they carry no
	// publication date.
	Undated int

	// Corrupt is the number of unreadable records skipped by the scan.
	Corrupt int
}

// Sweeper deletes documents whose publication date has aged out.
type Sweeper struct {
	repo   storage.DocumentRepository
	logger *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSweeper creates a sweeper over the given repository.
func NewSweeper(repo storage.DocumentRepository, opts ...Option) (*Sweeper, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	s := &Sweeper{
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.logger = s.logger.With("component", "eviction-sweeper")
	return s, nil
}

// Sweep deletes every document strictly older than retention relative to now:
// a document is removed when now.Sub(PublishedAt) > retention, so a document
// exactly retention old survives this sweep. Documents without a publication
// date are retained; age cannot be established for them and deleting on a
// missing field would make a metadata extraction gap destructive.
//
// Retention values below or equal to zero fall back to DefaultRetention. A
// zero now means time.Now().
func (s *Sweeper) Sweep(ctx context.Context, retention time.Duration, now time.Time) (*Report, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	docs, stats, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Corrupt: stats.Corrupt}
	for _, doc := range docs {
		if doc.PublishedAt.IsZero() {
			report.Undated++
			continue
		}
		if now.Sub(doc.PublishedAt) <= retention {
			report.Retained++
			continue
		}

		if err := s.repo.Delete(ctx, doc.URL); err != nil {
			return report, err
		}
		s.logger.Debug("evicted stale document", "url", doc.URL, "published", doc.PublishedAt)
		report.Deleted++
	}

	s.logger.Info("sweep complete",
		"deleted", report.Deleted,
		"retained", report.Retained,
		"undated", report.Undated,
		"corrupt", report.Corrupt,
		"retention", retention)
	return report, nil
}
