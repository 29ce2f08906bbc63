package fetch

import (
	"context"
	"time"
)

// Article holds the content and metadata extracted from a fetched page.
type Article struct {
	// URL the article was fetched from.
	URL string

	// Title of the article, empty if none could be extracted.
	Title string

	// Text is the extracted body text.
	Text string

	// Authors in the order they appear on the page. May be empty.
	Authors []string

	// PublishedAt is the extracted publication timestamp in UTC.
	// Zero when the page carries no usable date.
	PublishedAt time.Time
}

// Fetcher retrieves an article from a URL.
// Implementations must be thread-safe for concurrent use by ingestion workers.
type Fetcher interface {
	// Fetch downloads and parses the page at url.
	// Returns an error on network failure, non-200 responses, or pages
	// with no extractable body text.
	Fetch(ctx context.Context, url string) (*Article, error)
}
