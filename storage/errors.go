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


package storage

import "errors"

var (
	// ErrInvalidConfig indicates a missing or malformed connection parameter.
	ErrInvalidConfig = errors.New("invalid storage configuration")

	// ErrConnectionFailed indicates the backend was unreachable or its
	// handshake failed during initialization.
	ErrConnectionFailed = errors.New("storage connection failed")

	// ErrPartialCreation indicates that one of a concurrently-created
	// backend pair failed. The surviving backend has been rolled back.
	ErrPartialCreation = errors.New("partial backend creation")

	// ErrNoFactory indicates no backend constructor is registered for the
	// requested kind.
	ErrNoFactory = errors.New("no factory for storage kind")

	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
