package search

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/poiesic/newsdex/core"
	"github.com/poiesic/newsdex/storage"
)

// Query defaults, used by NewQuery.
const (
	DefaultTopN      = 5
	DefaultThreshold = 0.5
)

// Query describes one retrieval request. Build queries with NewQuery to get
// the default TopN and Threshold; a zero Threshold set explicitly means
// "everything with a positive score".
type Query struct {
	// Vector is the query embedding. Its dimension must match the store's.
	Vector []float32

	// TopN caps the number of matches returned. Values below 1 fall back
	// to DefaultTopN.
	TopN int

	// Threshold is the exclusive score cutoff: a record is returned only
	// when its (possibly boosted) score is strictly greater.
	Threshold float32

	// Blacklist excludes records from these sources unconditionally.
	// Blacklist wins over Whitelist.
	Blacklist []string

	// Whitelist maps source names to additive score boosts. The boost is
	// applied before the threshold comparison, so a whitelisted source can
	// pass the threshold on a sub-threshold raw similarity.
	Whitelist map[string]float32

	// From and To bound the publication date, both inclusive. A zero
	// bound is open on that side. When either is set, records without a
	// publication date are excluded.
	From time.Time
	To   time.Time
}

// NewQuery builds a Query with default TopN and Threshold.
func NewQuery(vector []float32) Query {
	return Query{
		Vector:    vector,
		TopN:      DefaultTopN,
		Threshold: DefaultThreshold,
	}
}

// Engine retrieves the most similar stored documents for a query embedding
// by brute-force cosine scan. The repository boundary keeps the scan
// replaceable by an index without changing callers.
type Engine struct {
	repo   storage.DocumentRepository
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a retrieval engine over the given repository.
func NewEngine(repo storage.DocumentRepository, opts ...Option) (*Engine, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}

	e := &Engine{
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.logger = e.logger.With("component", "search-engine")
	return e, nil
}

// Search returns up to q.TopN matches ordered by score descending.
// Ties keep scan order. An empty store yields an empty result, not an error.
func (e *Engine) Search(ctx context.Context, q Query) ([]core.Match, error) {
	return e.SearchWithMonitor(ctx, q, nil)
}

// SearchWithMonitor runs Search with per-stage observation hooks.
func (e *Engine) SearchWithMonitor(ctx context.Context, q Query, monitor Monitor) ([]core.Match, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(q)

	if len(q.Vector) == 0 {
		return nil, ErrEmptyQueryVector
	}
	if q.TopN < 1 {
		q.TopN = DefaultTopN
	}

	dim, err := e.repo.Dimension(ctx)
	if err != nil {
		return nil, err
	}
	if dim == 0 {
		// Store has never held a document.
		monitor.Finish(nil)
		return []core.Match{}, nil
	}
	if len(q.Vector) != dim {
		return nil, storage.ErrDimensionMismatch
	}

	docs, stats, err := e.candidates(ctx, q)
	if err != nil {
		return nil, err
	}
	monitor.AfterScan(stats)

	blacklist := make(map[string]bool, len(q.Blacklist))
	for _, source := range q.Blacklist {
		blacklist[source] = true
	}

	// Docs arrive in scan order; the stable sort below preserves that
	// order for equal scores, which is the documented tie-break.
	matches := make([]core.Match, 0, q.TopN)
	for _, doc := range docs {
		if blacklist[doc.Source] {
			continue
		}

		score := cosineSimilarity(q.Vector, doc.Vector)
		boost, whitelisted := q.Whitelist[doc.Source]
		if whitelisted {
			score += boost
		}
		if score <= q.Threshold {
			continue
		}

		monitor.Hit(doc, score)
		matches = append(matches, core.Match{Document: doc, Score: score})
	}

	slices.SortStableFunc(matches, func(a, b core.Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	if len(matches) > q.TopN {
		matches = matches[:q.TopN]
	}

	monitor.Finish(matches)
	e.logger.Debug("search complete",
		"scanned", stats.Scanned,
		"corrupt", stats.Corrupt,
		"matches", len(matches))
	return matches, nil
}

// candidates fetches the documents to score, narrowed by the date index when
// the query carries a date filter.
func (e *Engine) candidates(ctx context.Context, q Query) ([]*core.Document, storage.ScanStats, error) {
	if q.From.IsZero() && q.To.IsZero() {
		return e.repo.All(ctx)
	}

	from := q.From
	to := q.To
	if to.IsZero() {
		to = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
	}
	return e.repo.ByDateRange(ctx, from, to)
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Either vector having zero magnitude yields 0, by definition here: a
// zero vector points nowhere and matches nothing.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
