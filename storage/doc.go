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


// Package storage provides the storage abstraction layer for newsdex.
//
// This package defines the repository interface that decouples storage
// implementation from ingestion, retrieval and eviction logic. It allows for
// different storage backends (BadgerDB, in-memory, etc.) to be used
// interchangeably, and keeps the retrieval engine's dependency narrow enough
// that an indexed nearest-neighbor backend could replace the brute-force scan
// without changing callers.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction:
//
//	repo, err := badger.NewDocumentRepository(backend)  // returns storage.DocumentRepository
//
// # Record layout
//
// Documents are serialized with MUS, a fixed-width binary format. Embeddings
// are stored as a length-prefixed float32 array rather than a stringified
// literal, which removes a whole class of parse failures at read time.
// Records that still fail to decode surface as CorruptRecordError values;
// scans skip and count them instead of aborting.
//
// # Thread Safety
//
// All repository implementations must be thread-safe. Concurrent upserts are
// serialized per key by the backend; the last writer for a URL wins.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific timeout
// requirements.
package storage
