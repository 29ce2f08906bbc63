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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("url cannot be empty")

	// ErrEmptySource indicates the Source field is empty.
	ErrEmptySource = errors.New("source cannot be empty")

	// ErrEmptyText indicates the Text field is empty. Articles whose
	// extraction produced no body text are never persisted.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrEmptyVector indicates the embedding vector is missing.
	ErrEmptyVector = errors.New("embedding vector cannot be empty")

	// ErrFutureDate indicates the publication date is in the future.
	ErrFutureDate = errors.New("publication date cannot be in the future")

	// ErrBiasOutOfRange indicates a bias score outside [0,1].
	ErrBiasOutOfRange = errors.New("bias score must be in [0,1]")
)
