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
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratadb/strata/core"
	"github.com/stratadb/strata/layer"
	"github.com/stratadb/strata/storage"
)

// memGraph is a minimal in-memory storage.GraphStore for wiring tests.
type memGraph struct {
	initErr bool
	nodes   map[string]map[string]string
	edges   map[[2]string]map[string]string
}

func newMemGraph(initErr bool) *memGraph {
	return &memGraph{
		initErr: initErr,
		nodes:   make(map[string]map[string]string),
		edges:   make(map[[2]string]map[string]string),
	}
}

func (g *memGraph) Initialize(ctx context.Context) error {
	if g.initErr {
		return errors.New("graph server unreachable")
	}
	return nil
}
func (g *memGraph) Finalize(ctx context.Context) error { return nil }
func (g *memGraph) Ping(ctx context.Context) error     { return nil }

func (g *memGraph) HasNode(ctx context.Context, id string) (bool, error) {
	_, ok := g.nodes[id]
	return ok, nil
}

func (g *memGraph) HasEdge(ctx context.Context, src, dst string) (bool, error) {
	_, ok := g.edges[[2]string{src, dst}]
	return ok, nil
}

func (g *memGraph) GetNode(ctx context.Context, id string) (map[string]string, error) {
	props, ok := g.nodes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return props, nil
}

func (g *memGraph) GetEdge(ctx context.Context, src, dst string) (map[string]string, error) {
	props, ok := g.edges[[2]string{src, dst}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return props, nil
}

func (g *memGraph) NodeDegree(ctx context.Context, id string) (int, error) { return 0, nil }

func (g *memGraph) UpsertNode(ctx context.Context, id string, props map[string]string) error {
	g.nodes[id] = props
	return nil
}

func (g *memGraph) UpsertEdge(ctx context.Context, src, dst string, props map[string]string) error {
	g.edges[[2]string{src, dst}] = props
	return nil
}

func (g *memGraph) DeleteNode(ctx context.Context, id string) error {
	delete(g.nodes, id)
	return nil
}

func (g *memGraph) GetNodes(ctx context.Context, ids []string) (map[string]map[string]string, error) {
	return nil, nil
}

func (g *memGraph) NodeDegrees(ctx context.Context, ids []string) (map[string]int, error) {
	return nil, nil
}

func (g *memGraph) GetEdges(ctx context.Context, pairs [][2]string) (map[[2]string]map[string]string, error) {
	return nil, nil
}

func (g *memGraph) Neighborhood(ctx context.Context, start string, maxDepth, maxNodes int) (*core.Subgraph, error) {
	return &core.Subgraph{}, nil
}

func (g *memGraph) Drop(ctx context.Context) error { return nil }

func memGraphFactory(initErr bool) storage.GraphFactory {
	return func(namespace string, cfg storage.Config) (storage.GraphStore, error) {
		return newMemGraph(initErr), nil
	}
}

func TestOpenOfflineEndToEnd(t *testing.T) {
	ctx := context.Background()

	svc, err := Open(ctx, nil, WithGraphFactory(memGraphFactory(false)))
	require.NoError(t, err)
	defer svc.Close(ctx)

	content := "Strata keeps prioritized knowledge layers over shared storage."
	report, err := svc.Stack().InsertToLayer(ctx, "default", []*core.Document{{Content: content}}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)

	// Identical text embeds identically under the offline mock.
	results, err := svc.Stack().QueryAll(ctx, content, core.QueryParams{Mode: core.ModeNaive}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "default", results[0].Layer)
	assert.NotEmpty(t, results[0].Text)

	health := svc.Registry().HealthCheckAll(ctx)
	assert.Len(t, health, 2, "one graph and one vector backend for the single layer")
	for key, alive := range health {
		assert.True(t, alive, "backend %s", key)
	}
}

func TestOpenMultiLayer(t *testing.T) {
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.Layers = []layer.Descriptor{
		{Name: "hot", Priority: 1, Enabled: true},
		{Name: "cold", Priority: 2, Enabled: true},
		{Name: "archived", Priority: 3, Enabled: false},
	}

	svc, err := Open(ctx, cfg, WithGraphFactory(memGraphFactory(false)))
	require.NoError(t, err)
	defer svc.Close(ctx)

	stats, err := svc.Stack().Stats("")
	require.NoError(t, err)
	assert.Len(t, stats, 2, "disabled layers get no engine")
	assert.Equal(t, 4, svc.Registry().Len(), "two backends per enabled layer")
}

func TestOpenRollsBackOnLayerFailure(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, nil, WithGraphFactory(memGraphFactory(true)))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrConnectionFailed)
}

func TestOpenValidatesConfig(t *testing.T) {
	ctx := context.Background()

	cfg := DefaultConfig()
	cfg.Layers = nil
	_, err := Open(ctx, cfg)
	assert.Error(t, err)
}

func TestServiceCloseIsClean(t *testing.T) {
	ctx := context.Background()

	svc, err := Open(ctx, nil, WithGraphFactory(memGraphFactory(false)))
	require.NoError(t, err)

	require.NoError(t, svc.Close(ctx))
	assert.Zero(t, svc.Registry().Len())

	_, err = svc.Stack().Stats("")
	assert.ErrorIs(t, err, layer.ErrNotInitialized)
}
