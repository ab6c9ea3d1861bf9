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

import (
	"fmt"
	"strings"
)

// Config holds the connection parameters for one storage backend.
// It is treated as immutable once a handle has been created from it.
type Config struct {
	// Graph backend parameters.
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`

	// Vector backend parameters.
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
	// Threshold is the minimum cosine similarity for a vector match,
	// in [0, 1). Default 0.2.
	Threshold float32 `yaml:"threshold"`
}

// graphURISchemes are the URI schemes accepted for graph backends.
var graphURISchemes = []string{"neo4j://", "neo4j+s://", "neo4j+ssc://", "bolt://", "bolt+s://", "bolt+ssc://"}

// ValidateConfig inspects a backend configuration without side effects and
// reports whether it is usable for the given kind, together with every
// problem found. Callers use it to fail fast before CreateAll.
func ValidateConfig(kind Kind, cfg Config) (bool, []string) {
	var problems []string

	switch kind {
	case KindGraph:
		if cfg.URI == "" {
			problems = append(problems, "uri is required for graph storage")
		} else if !hasGraphScheme(cfg.URI) {
			problems = append(problems,
				fmt.Sprintf("uri %q must use one of the schemes %s",
					cfg.URI, strings.Join(graphURISchemes, ", ")))
		}
	case KindVector:
		if cfg.Path == "" && !cfg.InMemory {
			problems = append(problems, "path is required for vector storage unless in_memory is set")
		}
		if cfg.Threshold < 0 || cfg.Threshold >= 1 {
			problems = append(problems,
				fmt.Sprintf("threshold %v must be in [0, 1)", cfg.Threshold))
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage kind %v", kind))
	}

	return len(problems) == 0, problems
}

func hasGraphScheme(uri string) bool {
	for _, scheme := range graphURISchemes {
		if strings.HasPrefix(uri, scheme) {
			return true
		}
	}
	return false
}
