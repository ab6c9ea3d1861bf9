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

// Package engine implements the per-namespace retrieval engine that a
// layer delegates to.
//
// An Engine owns exactly one graph/vector backend pair, obtained from a
// storage.Registry under the engine's namespace. Ingestion chunks a
// document, embeds the chunks into the vector store, and extracts an
// entity graph into the graph store. Querying embeds the question,
// retrieves the closest chunks, optionally expands graph context
// depending on the query mode, and asks the completion model for an
// answer grounded in the retrieved material.
package engine
