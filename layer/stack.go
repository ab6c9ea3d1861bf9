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

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"

	"github.com/stratadb/strata/core"
)

// LayerStats are the mutable per-layer counters. Documents and Entities
// accumulate across inserts, Queries across query dispatches. Status
// reflects the last lifecycle event.
type LayerStats struct {
	Documents int
	Entities  int
	Queries   int
	Status    string
}

// Info combines a layer's static descriptor with its current counters.
type Info struct {
	Descriptor Descriptor
	Stats      LayerStats
}

// Stack owns one retrieval engine per enabled layer and orchestrates
// queries, ingestion and administration across them. All methods are
// safe for concurrent use.
type Stack struct {
	factory EngineFactory
	fanout  int
	logger  *slog.Logger

	mu          sync.RWMutex
	descriptors []Descriptor
	engines     map[string]Engine
	stats       map[string]*LayerStats
	initialized bool
}

// Option configures a Stack during construction.
type Option func(*Stack) error

// WithFanoutWidth bounds the number of layer queries running
// concurrently during QueryAll. Default is runtime.NumCPU().
func WithFanoutWidth(n int) Option {
	return func(s *Stack) error {
		if n <= 0 {
			return fmt.Errorf("fanout width must be positive, got %d", n)
		}
		s.fanout = n
		return nil
	}
}

// WithLogger sets the logger used by the stack.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stack) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// New creates an uninitialized stack over the given descriptors. The
// declared order is preserved and breaks priority ties. Engines are not
// constructed until Initialize.
func New(descriptors []Descriptor, factory EngineFactory, opts ...Option) (*Stack, error) {
	if factory == nil {
		return nil, fmt.Errorf("engine factory cannot be nil")
	}

	seen := make(map[string]bool, len(descriptors))
	normalized := make([]Descriptor, len(descriptors))
	for i, d := range descriptors {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("descriptor %d: %w", i, err)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate layer name %q", d.Name)
		}
		seen[d.Name] = true
		if d.Namespace == "" {
			d.Namespace = d.Name
		}
		normalized[i] = d
	}

	s := &Stack{
		factory:     factory,
		fanout:      runtime.NumCPU(),
		logger:      slog.Default().With("component", "layer-stack"),
		descriptors: normalized,
		engines:     make(map[string]Engine),
		stats:       make(map[string]*LayerStats),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Initialize constructs and opens one engine per enabled layer, in the
// declared descriptor order. The first failure aborts and propagates;
// layers initialized before the failure stay up and a retry resumes from
// scratch. Calling Initialize on an initialized stack is a no-op with a
// warning.
func (s *Stack) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		s.logger.Warn("stack already initialized, ignoring")
		return nil
	}

	for _, d := range s.descriptors {
		if !d.Enabled {
			s.logger.Debug("skipping disabled layer", "layer", d.Name)
			continue
		}

		if d.StorageLocation != "" {
			if err := os.MkdirAll(d.StorageLocation, 0o755); err != nil {
				return fmt.Errorf("creating storage location for layer %s: %w", d.Name, err)
			}
		}

		eng, err := s.factory(d)
		if err != nil {
			return fmt.Errorf("constructing engine for layer %s: %w", d.Name, err)
		}
		if err := eng.InitStorages(ctx); err != nil {
			return fmt.Errorf("initializing layer %s: %w", d.Name, err)
		}

		s.engines[d.Name] = eng
		s.stats[d.Name] = &LayerStats{Status: "ready"}
		s.logger.Info("layer initialized", "layer", d.Name, "priority", d.Priority, "namespace", d.Namespace)
	}

	s.initialized = true
	return nil
}

// Finalize tears down every layer's engine best-effort, continuing past
// per-layer failures, then clears all state. The stack can be
// initialized again afterwards.
func (s *Stack) Finalize(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, eng := range s.engines {
		if err := eng.FinalizeStorages(ctx); err != nil {
			s.logger.Warn("layer teardown failed", "layer", name, "err", err)
		}
	}
	s.engines = make(map[string]Engine)
	s.stats = make(map[string]*LayerStats)
	s.initialized = false
}

// InsertToLayer ingests documents sequentially into one layer. Each
// document's failure is recorded in the report and the batch continues;
// the returned error covers only call-level problems such as an unknown
// layer. With skipExisting set, documents whose content ID is already
// stored are counted as skipped without re-ingestion.
func (s *Stack) InsertToLayer(ctx context.Context, layerName string, docs []*core.Document, skipExisting bool) (*core.InsertReport, error) {
	s.mu.RLock()
	if !s.initialized {
		s.mu.RUnlock()
		return nil, ErrNotInitialized
	}
	eng, ok := s.engines[layerName]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownLayer, layerName)
	}

	report := &core.InsertReport{Total: len(docs)}
	for i, doc := range docs {
		if doc == nil {
			report.Failed++
			report.Errors = append(report.Errors, core.InsertError{DocIndex: i, Err: "document is nil"})
			continue
		}

		if skipExisting {
			id := doc.ID
			if id == "" && doc.Content != "" {
				id = core.IDFromContent(doc.Content)
			}
			if id != "" {
				has, err := eng.Has(ctx, id)
				if err != nil {
					// Existence check failure falls through to insertion.
					s.logger.Warn("existence check failed", "layer", layerName, "doc", id, "err", err)
				} else if has {
					report.Skipped++
					continue
				}
			}
		}

		stats, err := eng.Insert(ctx, doc)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, core.InsertError{DocIndex: i, Err: err.Error()})
			s.logger.Warn("document insert failed", "layer", layerName, "index", i, "err", err)
			continue
		}

		report.Succeeded++
		s.mu.Lock()
		if st := s.stats[layerName]; st != nil {
			st.Documents++
			st.Entities += stats.Entities
		}
		s.mu.Unlock()
	}

	s.logger.Info("batch insert finished",
		"layer", layerName,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped)
	return report, nil
}

// Stats returns the descriptor and counters of one layer, or of every
// initialized layer when layerName is empty.
func (s *Stack) Stats(layerName string) (map[string]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	out := make(map[string]Info)
	if layerName != "" {
		st, ok := s.stats[layerName]
		if !ok {
			return nil, fmt.Errorf("%w: %q", core.ErrUnknownLayer, layerName)
		}
		d, _ := s.descriptor(layerName)
		out[layerName] = Info{Descriptor: d, Stats: *st}
		return out, nil
	}

	for name, st := range s.stats {
		d, _ := s.descriptor(name)
		out[name] = Info{Descriptor: d, Stats: *st}
	}
	return out, nil
}

// Clear resets a layer's counters and marks it cleared. Underlying
// storage is untouched: this is a soft reset of statistics, not a data
// deletion.
func (s *Stack) Clear(layerName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}
	st, ok := s.stats[layerName]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownLayer, layerName)
	}

	*st = LayerStats{Status: "cleared"}
	s.logger.Info("layer counters cleared", "layer", layerName)
	return nil
}

// Rebuild finalizes and re-initializes one layer's storage and zeroes
// its counters. Failures are logged and reported as a false return
// rather than propagated.
func (s *Stack) Rebuild(ctx context.Context, layerName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.logger.Warn("rebuild requested on uninitialized stack", "layer", layerName)
		return false
	}
	eng, ok := s.engines[layerName]
	if !ok {
		s.logger.Warn("rebuild requested for unknown layer", "layer", layerName)
		return false
	}

	if err := eng.FinalizeStorages(ctx); err != nil {
		s.logger.Warn("layer teardown failed during rebuild", "layer", layerName, "err", err)
	}
	if err := eng.InitStorages(ctx); err != nil {
		s.logger.Error("layer re-initialization failed", "layer", layerName, "err", err)
		if st := s.stats[layerName]; st != nil {
			st.Status = "error"
		}
		return false
	}

	s.stats[layerName] = &LayerStats{Status: "rebuilt"}
	s.logger.Info("layer rebuilt", "layer", layerName)
	return true
}

// UpdateDescriptor applies a closed set of mutations to one layer's
// descriptor. Changes affect subsequent reads and query planning; a
// running engine is not reconfigured.
func (s *Stack) UpdateDescriptor(layerName string, upd Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.descriptors {
		if s.descriptors[i].Name != layerName {
			continue
		}
		if upd.Description != nil {
			s.descriptors[i].Description = *upd.Description
		}
		if upd.Priority != nil {
			s.descriptors[i].Priority = *upd.Priority
		}
		if upd.Enabled != nil {
			s.descriptors[i].Enabled = *upd.Enabled
		}
		s.logger.Info("layer descriptor updated", "layer", layerName)
		return nil
	}
	return fmt.Errorf("%w: %q", core.ErrUnknownLayer, layerName)
}

// Descriptors returns a copy of the current descriptors in declared
// order.
func (s *Stack) Descriptors() []Descriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Descriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

// descriptor looks a descriptor up by name. Caller holds s.mu.
func (s *Stack) descriptor(name string) (Descriptor, bool) {
	for _, d := range s.descriptors {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
