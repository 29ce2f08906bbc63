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


package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "newsdex/1.0"

// HTTPFetcher implements Fetcher over plain HTTP with goquery extraction.
// Requests are rate limited across all callers sharing the fetcher.
type HTTPFetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
}

var _ Fetcher = (*HTTPFetcher)(nil)

// HTTPOption is a functional option for configuring an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithTimeout sets the per-request timeout. Default 30s.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client.Timeout = timeout
	}
}

// WithRateLimit caps outgoing requests per second. Default 2.
func WithRateLimit(perSecond float64) HTTPOption {
	return func(f *HTTPFetcher) {
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithUserAgent sets the User-Agent header on requests.
func WithUserAgent(ua string) HTTPOption {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		f.logger = logger.With("component", "http-fetcher")
	}
}

// NewHTTPFetcher creates an HTTP fetcher with default settings.
func NewHTTPFetcher(opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:    &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(2), 1),
		userAgent: defaultUserAgent,
		logger:    slog.Default().With("component", "http-fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads and parses the article at url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Article, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}

	article := &Article{
		URL:         url,
		Title:       extractTitle(doc),
		Text:        extractBody(doc),
		Authors:     extractAuthors(doc),
		PublishedAt: extractPublishedAt(doc),
	}
	if article.Text == "" {
		return nil, fmt.Errorf("%s: %w", url, ErrEmptyBody)
	}

	f.logger.Debug("fetched article",
		"url", url,
		"title", article.Title,
		"chars", len(article.Text),
		"authors", len(article.Authors))
	return article, nil
}

// extractTitle prefers the Open Graph title over the document title.
func extractTitle(doc *goquery.Document) string {
	if og, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		if title := strings.TrimSpace(og); title != "" {
			return title
		}
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// extractBody pulls the article text from the most specific container found.
func extractBody(doc *goquery.Document) string {
	selectors := []string{
		"article",
		"main",
		".article-body",
		".story-body",
		"#content",
	}

	var container *goquery.Selection
	for _, selector := range selectors {
		if selected := doc.Find(selector).First(); selected.Length() > 0 {
			container = selected
			break
		}
	}
	if container == nil {
		container = doc.Find("body")
	}

	// Join paragraph text rather than dumping container.Text(), which drags
	// in navigation and figure captions.
	var paragraphs []string
	container.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := cleanText(p.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n\n")
	}
	return cleanText(container.Text())
}

func extractAuthors(doc *goquery.Document) []string {
	var authors []string
	seen := make(map[string]bool)
	add := func(raw string) {
		// Author metas sometimes pack several names into one value.
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			if name == "" || seen[strings.ToLower(name)] {
				continue
			}
			seen[strings.ToLower(name)] = true
			authors = append(authors, name)
		}
	}

	doc.Find(`meta[name="author"], meta[property="article:author"]`).Each(func(_ int, s *goquery.Selection) {
		if content, ok := s.Attr("content"); ok {
			add(content)
		}
	})
	if len(authors) == 0 {
		doc.Find(`[rel="author"]`).Each(func(_ int, s *goquery.Selection) {
			add(s.Text())
		})
	}
	return authors
}

// extractPublishedAt reads the publication timestamp from article metadata.
// Returns the zero time when the page carries no parseable date.
func extractPublishedAt(doc *goquery.Document) time.Time {
	var candidates []string
	if content, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok {
		candidates = append(candidates, content)
	}
	if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, datetime)
	}

	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, candidate); err == nil {
				return ts.UTC()
			}
		}
	}
	return time.Time{}
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}
