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

// Package api exposes the layer stack over HTTP.
//
// The server wraps a layer.Stack with a chi router, JSON request/response
// envelopes, request-ID propagation, structured request logging, panic
// recovery and per-IP token-bucket rate limiting.
package api
