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

// Package storage provides the storage abstraction layer for Lexicore.
//
// This package defines store interfaces that decouple storage implementation
// from business logic, allowing different backends (BadgerDB, in-memory, etc.)
// to be used interchangeably.
//
// # Constructor Return Type Pattern
//
// This package follows a strict "return interface" pattern for all public
// constructors to enforce abstraction and enable multiple storage backends:
//
//	docs, graph, err := badger.NewStores(path) // returns storage interfaces
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Architecture
//
//   - DocumentStore: versioned documents and their chunks, committed
//     atomically so a version is either fully visible or not at all
//   - GraphStore: directed citation edges with pending/resolved/dangling
//     lifecycle
//   - Snapshot: a point-in-time read view the query engine holds for the
//     duration of one query
//
// # Usage
//
//	docs, graph, backend, err := badger.NewStores("/path/to/db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// Use in tests with in-memory storage:
//
//	docs, graph, backend, err := badger.NewMemoryStores()
//
// # Thread Safety
//
// All store implementations must be thread-safe and support concurrent access
// from multiple goroutines.
//
// # Context Support
//
// All store methods accept context.Context for cancellation and timeout
// support. Pass context.Background() for operations without specific timeout
// requirements.
package storage
