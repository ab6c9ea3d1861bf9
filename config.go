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

package strata

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stratadb/strata/ai"
	"github.com/stratadb/strata/layer"
	"github.com/stratadb/strata/storage"
)

// Config describes a full service: the AI endpoints, the shared backend
// connection settings and the layer stack.
type Config struct {
	// AI configures the embedding and completion endpoints. Ignored in
	// offline mode.
	AI *ai.Config `yaml:"ai"`

	// Offline swaps the AI services for deterministic in-process mocks.
	Offline bool `yaml:"offline"`

	// Graph is the connection template for every layer's graph backend.
	// Layers share the server; isolation happens per namespace.
	Graph storage.Config `yaml:"graph"`

	// Vector is the template for every layer's vector backend. A
	// non-empty Path is treated as a parent directory: each namespace
	// gets its own subdirectory, since the store locks its directory.
	Vector storage.Config `yaml:"vector"`

	Layers []layer.Descriptor `yaml:"layers"`

	// FanoutWidth bounds concurrent layer queries. Zero means one
	// worker per CPU.
	FanoutWidth int `yaml:"fanout_width"`

	// OpTimeout bounds individual backend operations. Zero disables
	// the bound.
	OpTimeout time.Duration `yaml:"op_timeout"`
}

// DefaultConfig is a single-layer, in-memory, offline setup. Useful for
// tests and local experiments; production deployments load a file.
func DefaultConfig() *Config {
	return &Config{
		AI:      ai.DefaultConfig(),
		Offline: true,
		Graph:   storage.Config{URI: "neo4j://localhost:7687", Username: "neo4j", Password: "neo4j"},
		Vector:  storage.Config{InMemory: true},
		Layers: []layer.Descriptor{
			{Name: "default", Description: "general knowledge", Priority: 1, Enabled: true},
		},
	}
}

// LoadConfig reads a YAML service configuration from path.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := &Config{AI: ai.DefaultConfig()}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the parts the registry cannot check later.
func (c *Config) Validate() error {
	if len(c.Layers) == 0 {
		return fmt.Errorf("at least one layer must be configured")
	}
	if !c.Offline {
		if c.AI == nil {
			return fmt.Errorf("ai configuration is required unless offline is set")
		}
		c.AI.Normalize()
		if err := c.AI.Validate(); err != nil {
			return err
		}
	}
	return nil
}
