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


// Package sources maps feed identifiers to canonical publisher names.
//
// Ingestion requests carry the feed name they were scraped under; stored
// documents carry the canonical publisher name so allow/deny lists and boosts
// match regardless of which feed an article arrived through. Unknown feed
// names are a configuration gap and fail loudly rather than defaulting.
package sources

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownSourceError reports a feed name with no canonical mapping.
type UnknownSourceError struct {
	Feed string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source feed %q", e.Feed)
}

// Normalizer resolves feed names to canonical publisher names.
// Lookups are case-insensitive on the feed name. A Normalizer is immutable
// after construction and safe for concurrent use.
type Normalizer struct {
	table map[string]string
}

// NewNormalizer creates a normalizer over the given feed → publisher table.
func NewNormalizer(table map[string]string) *Normalizer {
	canonical := make(map[string]string, len(table))
	for feed, name := range table {
		canonical[strings.ToLower(strings.TrimSpace(feed))] = name
	}
	return &Normalizer{table: canonical}
}

// NewDefaultNormalizer creates a normalizer with the built-in feed table.
func NewDefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultTable())
}

// LoadNormalizer reads a feed table from a YAML file of the form:
//
//	feeds:
//	  bbc-world: BBC News
//	  reuters-top: Reuters
func LoadNormalizer(path string) (*Normalizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source table: %w", err)
	}

	var file struct {
		Feeds map[string]string `yaml:"feeds"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing source table: %w", err)
	}
	if len(file.Feeds) == 0 {
		return nil, fmt.Errorf("source table %s defines no feeds", path)
	}

	return NewNormalizer(file.Feeds), nil
}

// Normalize resolves a feed name to its canonical publisher name.
// Returns an UnknownSourceError when the feed is not in the table.
func (n *Normalizer) Normalize(feed string) (string, error) {
	name, ok := n.table[strings.ToLower(strings.TrimSpace(feed))]
	if !ok {
		return "", &UnknownSourceError{Feed: feed}
	}
	return name, nil
}

// Known reports whether the feed has a canonical mapping.
func (n *Normalizer) Known(feed string) bool {
	_, ok := n.table[strings.ToLower(strings.TrimSpace(feed))]
	return ok
}

// Len returns the number of configured feeds.
func (n *Normalizer) Len() int {
	return len(n.table)
}

// DefaultTable returns the built-in feed → publisher table.
func DefaultTable() map[string]string {
	return map[string]string{
		"ap-top":           "Associated Press",
		"bbc-world":        "BBC News",
		"cnn-top":          "CNN",
		"fox-latest":       "Fox News",
		"guardian-world":   "The Guardian",
		"nyt-homepage":     "The New York Times",
		"npr-news":         "NPR",
		"reuters-top":      "Reuters",
		"wapo-national":    "The Washington Post",
		"wsj-world":        "The Wall Street Journal",
		"aljazeera-all":    "Al Jazeera",
		"politico-news":    "Politico",
		"economist-latest": "The Economist",
	}
}
