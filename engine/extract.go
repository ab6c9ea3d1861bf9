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

package engine

import (
	"context"
	"encoding/json"
	"strings"
)

// entity is an internal type used for JSON unmarshaling.
// It matches the structure expected from the LLM.
type entity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// relation is an internal type used for JSON unmarshaling.
type relation struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Description string `json:"description"`
}

// extraction is the wrapper structure for the LLM's JSON response.
type extraction struct {
	Entities  []entity   `json:"entities"`
	Relations []relation `json:"relations"`
}

// extractGraph asks the completion model for the entity graph of text.
// Malformed JSON is retried up to 3 times, then treated as an empty
// extraction; entities with empty names and relations referencing
// unknown entities are dropped. Only transport failures are errors.
func (e *Engine) extractGraph(ctx context.Context, text string) (*extraction, error) {
	var result extraction
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := e.completer.Complete(ctx, buildExtractionPrompt(), text)
		if err != nil {
			e.logger.Error("entity extraction request failed", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if err := json.Unmarshal([]byte(stripCodeFences(response)), &result); err != nil {
			lastErr = err
			e.logger.Warn("error parsing extraction response",
				"attempt", attempt+1,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		// The model never produced parseable JSON. Ingestion degrades to
		// vector-only rather than failing the document.
		e.logger.Error("failed to parse extraction response after retries", "err", lastErr)
		return &extraction{}, nil
	}

	return sanitizeExtraction(&result), nil
}

// sanitizeExtraction normalizes entity names and removes dangling
// relations.
func sanitizeExtraction(raw *extraction) *extraction {
	known := make(map[string]bool, len(raw.Entities))
	out := &extraction{}

	for _, ent := range raw.Entities {
		name := normalizeEntityName(ent.Name)
		if name == "" || known[name] {
			continue
		}
		known[name] = true
		ent.Name = name
		ent.Type = strings.ReplaceAll(strings.TrimSpace(ent.Type), " ", "_")
		out.Entities = append(out.Entities, ent)
	}

	for _, rel := range raw.Relations {
		rel.Source = normalizeEntityName(rel.Source)
		rel.Target = normalizeEntityName(rel.Target)
		if rel.Source == "" || rel.Target == "" || rel.Source == rel.Target {
			continue
		}
		if !known[rel.Source] || !known[rel.Target] {
			continue
		}
		out.Relations = append(out.Relations, rel)
	}

	return out
}

// normalizeEntityName lowercases a name and collapses internal
// whitespace, so "  New   York " and "new york" identify the same node.
func normalizeEntityName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// stripCodeFences removes markdown code fences some models wrap JSON in.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
