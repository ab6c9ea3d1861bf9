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

// Package layer orchestrates queries and ingestion across a stack of
// prioritized knowledge layers.
//
// Each layer is described by a Descriptor and served by its own
// retrieval engine in an isolated storage namespace. The Stack owns one
// engine per enabled layer and offers two retrieval strategies: QueryAll
// fans out to every target layer concurrently and merges results in
// priority order, while QueryByPriority walks layers sequentially from
// the highest priority down and can stop at the first hit. Ingestion and
// administrative operations (stats, clear, rebuild, descriptor updates)
// address a single layer by name.
package layer
