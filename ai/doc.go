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


// Package ai defines the AI service interfaces consumed by the retrieval
// engine: text embedding and text completion.
//
// The engine never talks to a model API directly; it receives an
// ai.Provider and uses whatever Embedder and Completer that provider
// supplies. Two implementations ship with strata:
//
//   - openai: OpenAI-compatible HTTP APIs via langchaingo, covering
//     OpenAI itself and local servers like Ollama and vLLM
//   - mock: deterministic in-process doubles for tests and offline use
//
// # Thread Safety
//
// All service implementations must be safe for concurrent use; the layered
// query path calls them from multiple goroutines.
package ai
