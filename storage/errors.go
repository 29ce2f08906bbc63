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


package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates that the requested document was not found.
	ErrNotFound = errors.New("document not found")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrDimensionMismatch indicates an embedding whose dimension differs
	// from the dimension established by the store's first document.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrCorruptRecord indicates a stored record that cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrEmptyVector indicates an upsert without an embedding.
	ErrEmptyVector = errors.New("document has no embedding vector")
)

// CorruptRecordError carries the key of an undecodable stored record.
// It matches ErrCorruptRecord under errors.Is.
type CorruptRecordError struct {
	Key string
	Err error
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record %q: %v", e.Key, e.Err)
}

func (e *CorruptRecordError) Unwrap() error { return e.Err }

// Is reports a match for ErrCorruptRecord.
func (e *CorruptRecordError) Is(target error) bool {
	return target == ErrCorruptRecord
}
