// Copyright 2026 StrataDB
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


// Package storage provides the storage abstraction layer for strata.
//
// This package defines the capability interfaces that decouple storage
// implementations from the rest of the system, and the Registry that owns
// every live backend connection.
//
// # Backends
//
// Two kinds of backend exist:
//
//   - GraphStore: a property-graph store holding entities and their
//     relations (implemented by the neo4j subpackage)
//   - VectorStore: an embedding store supporting similarity search
//     (implemented by the badger subpackage)
//
// # Registry
//
// The Registry is a keyed cache of backend handles. The key is the pair
// (kind, namespace): at most one Ready handle exists per key at any time.
// Creation is race-free under concurrent callers; a second caller for the
// same key waits for the first creation to finish and receives the cached
// handle instead of opening a second physical connection.
//
// Registries are plain values owned by the application root and passed by
// injection; there is no package-level singleton.
//
// # Lifecycle
//
// A handle moves through Uninitialized -> Initializing -> {Ready, Error},
// and Ready -> Closed. Handles that failed initialization are never
// registered; a registered handle that later enters the Error state is
// evicted and recreated on the next Create call for its key.
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Backend implementations must be
// safe for concurrent use once Initialize has returned.
package storage
