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

package layer

import "fmt"

// Descriptor is the static configuration of one knowledge layer.
// Descriptors are immutable after Stack construction except through
// UpdateDescriptor.
type Descriptor struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Priority orders layers for querying and merged output.
	// Lower values are consulted first.
	Priority int `yaml:"priority"`
	// Namespace isolates the layer's storage. Defaults to the layer name.
	Namespace string `yaml:"namespace"`
	// StorageLocation is an optional filesystem directory for layers
	// whose backends persist locally. Created on Initialize if missing.
	StorageLocation string `yaml:"storage_location"`
	Enabled         bool   `yaml:"enabled"`
}

// Validate checks the descriptor's mandatory fields.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("layer name cannot be empty")
	}
	return nil
}

// Update is the closed set of descriptor mutations UpdateDescriptor
// accepts. Nil fields are left unchanged. Renaming a layer is not
// supported: the name keys the running engine.
type Update struct {
	Description *string
	Priority    *int
	Enabled     *bool
}
