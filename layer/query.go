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
	"sort"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/stratadb/strata/core"
)

// mergeSentinel is returned by QueryAllMerged when no layer produced a
// result.
const mergeSentinel = "No relevant results found in any layer."

// target is a snapshot of one layer taken under the read lock, so query
// I/O runs without holding it.
type target struct {
	desc Descriptor
	eng  Engine
}

// QueryAll fans the query out to every target layer concurrently and
// returns the successful results sorted by ascending priority, ties
// broken by declaration order. A layer's failure is logged and excludes
// only that layer; layers with nothing relevant are simply absent. The
// onlyLayers filter restricts the target set and rejects unknown names.
func (s *Stack) QueryAll(ctx context.Context, query string, params core.QueryParams, onlyLayers []string) ([]*core.LayerResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.ErrEmptyQuery
	}

	targets, err := s.resolveTargets(onlyLayers)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(s.fanout)
	if err != nil {
		return nil, fmt.Errorf("creating query pool: %w", err)
	}
	defer pool.Release()

	collected := make(chan *core.LayerResult, len(targets))
	var wg sync.WaitGroup
	for _, tgt := range targets {
		tgt := tgt
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if res := s.queryLayer(ctx, tgt, query, params); res != nil {
				collected <- res
			}
		}); err != nil {
			wg.Done()
			s.logger.Warn("layer query not scheduled", "layer", tgt.desc.Name, "err", err)
		}
	}
	wg.Wait()
	close(collected)

	// Completion order is arbitrary; re-assemble in target order, which
	// is already priority-sorted.
	byName := make(map[string]*core.LayerResult, len(targets))
	for res := range collected {
		byName[res.Layer] = res
	}
	var results []*core.LayerResult
	for _, tgt := range targets {
		if res, ok := byName[tgt.desc.Name]; ok {
			results = append(results, res)
		}
	}
	return results, nil
}

// QueryAllMerged runs QueryAll and renders the results as one document:
// a header naming the query and contributing layer count, then one
// titled section per layer in priority order. When every layer fails or
// comes back empty a fixed "no results" sentinel is returned.
func (s *Stack) QueryAllMerged(ctx context.Context, query string, params core.QueryParams, onlyLayers []string) (string, error) {
	results, err := s.QueryAll(ctx, query, params, onlyLayers)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return mergeSentinel, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Query: %s\n\n", query)
	fmt.Fprintf(&b, "Results from %d layer(s):\n\n", len(results))
	for _, res := range results {
		fmt.Fprintf(&b, "## %s (priority %d)\n\n%s\n\n", res.Layer, res.Priority, res.Text)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// QueryByPriority walks layers sequentially in ascending priority
// order. With stopAtFirst the first non-empty result is returned without
// consulting any lower layer. Otherwise every layer is queried and the
// best-scoring result at or above minConfidence is returned; nil means
// no layer qualified. Per-layer failures are logged and skipped.
func (s *Stack) QueryByPriority(ctx context.Context, query string, params core.QueryParams, stopAtFirst bool, minConfidence float64) (*core.LayerResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, core.ErrEmptyQuery
	}

	targets, err := s.resolveTargets(nil)
	if err != nil {
		return nil, err
	}

	var best *core.LayerResult
	for _, tgt := range targets {
		res := s.queryLayer(ctx, tgt, query, params)
		if res == nil {
			continue
		}
		if stopAtFirst {
			return res, nil
		}
		if res.Score >= minConfidence && (best == nil || res.Score > best.Score) {
			best = res
		}
	}
	return best, nil
}

// queryLayer runs one layer's query, bumps its counter and converts the
// answer. Nil means the layer failed or had nothing relevant.
func (s *Stack) queryLayer(ctx context.Context, tgt target, query string, params core.QueryParams) *core.LayerResult {
	s.mu.Lock()
	if st := s.stats[tgt.desc.Name]; st != nil {
		st.Queries++
	}
	s.mu.Unlock()

	ans, err := tgt.eng.Query(ctx, query, params)
	if err != nil {
		s.logger.Warn("layer query failed", "layer", tgt.desc.Name, "err", err)
		return nil
	}
	if ans == nil || ans.Text == "" {
		return nil
	}
	return &core.LayerResult{
		Layer:       tgt.desc.Name,
		Text:        ans.Text,
		Priority:    tgt.desc.Priority,
		Namespace:   tgt.desc.Namespace,
		Description: tgt.desc.Description,
		Score:       ans.Score,
		Sources:     ans.Sources,
	}
}

// resolveTargets snapshots the layers to query, sorted by ascending
// priority with declaration order breaking ties. A nil filter selects
// every enabled initialized layer; an explicit filter rejects unknown
// and disabled names.
func (s *Stack) resolveTargets(onlyLayers []string) ([]target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, ErrNotInitialized
	}

	var targets []target
	if onlyLayers == nil {
		for _, d := range s.descriptors {
			eng, ok := s.engines[d.Name]
			if !ok || !d.Enabled {
				continue
			}
			targets = append(targets, target{desc: d, eng: eng})
		}
	} else {
		for _, name := range onlyLayers {
			d, ok := s.descriptor(name)
			if !ok {
				return nil, fmt.Errorf("%w: %q", core.ErrUnknownLayer, name)
			}
			eng, ok := s.engines[name]
			if !ok || !d.Enabled {
				return nil, fmt.Errorf("%w: %q", ErrLayerDisabled, name)
			}
			targets = append(targets, target{desc: d, eng: eng})
		}
	}

	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].desc.Priority < targets[j].desc.Priority
	})
	return targets, nil
}
