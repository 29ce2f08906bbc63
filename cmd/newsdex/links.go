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


package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/poiesic/newsdex/ingestion"
)

// dateLayouts accepted for the optional third field of a links line and for
// the --from/--to search flags.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseLinks reads ingestion requests from r, one per line:
//
//	feed, url[, date]
//
// Blank lines and lines starting with # are skipped.
func parseLinks(r io.Reader) ([]ingestion.Request, error) {
	var requests []ingestion.Request

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 2 || len(fields) > 3 {
			return nil, fmt.Errorf("line %d: want 'feed, url[, date]', got %q", lineNo, line)
		}

		req := ingestion.Request{
			Feed: strings.TrimSpace(fields[0]),
			URL:  strings.TrimSpace(fields[1]),
		}
		if req.Feed == "" || req.URL == "" {
			return nil, fmt.Errorf("line %d: feed and url must be non-empty", lineNo)
		}

		if len(fields) == 3 {
			date, err := parseDate(strings.TrimSpace(fields[2]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			req.PublishedAt = date
		}

		requests = append(requests, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

func parseLinksFile(path string) ([]ingestion.Request, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseLinks(f)
}

// parseBoosts turns "feed=0.2" pairs into a source boost table.
func parseBoosts(pairs []string) (map[string]float32, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	boosts := make(map[string]float32, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("want 'source=boost', got %q", pair)
		}

		var boost float32
		if _, err := fmt.Sscanf(strings.TrimSpace(value), "%g", &boost); err != nil {
			return nil, fmt.Errorf("bad boost in %q: %w", pair, err)
		}
		boosts[strings.TrimSpace(name)] = boost
	}
	return boosts, nil
}
