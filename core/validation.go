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


package core

import (
	"fmt"
	"time"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - URL, Source and Text must not be empty
//   - Vector must not be empty (no partial records are ever stored)
//   - PublishedAt, when set, must not be in the future
//   - BiasScore, when set, must be in [0,1]
//
// NOT validated:
//   - Authors and Title (legitimately empty for some articles)
//   - PublishedAt zero value (unknown publication date is allowed)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyURL)
	}

	if doc.Source == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySource)
	}

	if doc.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyText)
	}

	if len(doc.Vector) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyVector)
	}

	if !IsValidPublicationDate(doc.PublishedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrFutureDate)
	}

	if doc.BiasScore != nil && (*doc.BiasScore < 0 || *doc.BiasScore > 1) {
		return fmt.Errorf("%w: %w: %v", ErrInvalidDocument, ErrBiasOutOfRange, *doc.BiasScore)
	}

	return nil
}

// IsValidPublicationDate checks that a publication date is not in the future.
// The zero value is valid and means the date is unknown.
func IsValidPublicationDate(ts time.Time) bool {
	return ts.IsZero() || !ts.After(time.Now())
}
