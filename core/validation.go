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


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//
// NOT validated (populated during ingestion):
//   - ID (empty is valid; derived from content)
//   - Metadata (optional)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	return nil
}

// ValidateMode validates that a QueryMode has a recognized value.
func ValidateMode(mode QueryMode) error {
	switch mode {
	case ModeNaive, ModeLocal, ModeGlobal, ModeHybrid:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
}

// NormalizeParams fills in defaults for unset query parameters.
func NormalizeParams(params QueryParams) QueryParams {
	if params.Mode == "" {
		params.Mode = ModeHybrid
	}
	if params.TopK <= 0 {
		params.TopK = 10
	}
	return params
}
