// Package mock provides a test double for fetch.Fetcher.
package mock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/poiesic/newsdex/fetch"
)

// Fetcher is a test double for fetch.Fetcher.
// It allows custom behavior injection via a function field.
type Fetcher struct {
	// FetchFunc is called by Fetch if set.
	// If nil, uses default deterministic behavior.
	FetchFunc func(ctx context.Context, url string) (*fetch.Article, error)

	callCount atomic.Int64
}

// NewFetcher creates a mock fetcher with default deterministic behavior.
// Returns the concrete type so tests can inject behavior and assert calls.
func NewFetcher() *Fetcher {
	return &Fetcher{}
}

// Fetch returns a deterministic article derived from the URL.
func (m *Fetcher) Fetch(ctx context.Context, url string) (*fetch.Article, error) {
	m.callCount.Add(1)

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, url)
	}

	return &fetch.Article{
		URL:         url,
		Title:       fmt.Sprintf("Article at %s", url),
		Text:        fmt.Sprintf("Body text for article at %s.", url),
		Authors:     []string{"Staff Writer"},
		PublishedAt: time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
	}, nil
}

// CallCount returns the number of times Fetch was called.
func (m *Fetcher) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom function.
func (m *Fetcher) Reset() {
	m.callCount.Store(0)
	m.FetchFunc = nil
}
