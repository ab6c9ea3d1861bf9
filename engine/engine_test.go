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
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratadb/strata/ai/mock"
	"github.com/stratadb/strata/core"
	"github.com/stratadb/strata/storage"
	"github.com/stratadb/strata/storage/badger"
)

// fakeGraph is an in-memory storage.GraphStore for engine tests.
type fakeGraph struct {
	mu              sync.Mutex
	nodes           map[string]map[string]string
	edges           map[[2]string]map[string]string
	neighborhoodErr error
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		nodes: make(map[string]map[string]string),
		edges: make(map[[2]string]map[string]string),
	}
}

func (g *fakeGraph) Initialize(ctx context.Context) error { return nil }
func (g *fakeGraph) Finalize(ctx context.Context) error   { return nil }
func (g *fakeGraph) Ping(ctx context.Context) error       { return nil }

func (g *fakeGraph) HasNode(ctx context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.nodes[id]
	return ok, nil
}

func (g *fakeGraph) HasEdge(ctx context.Context, src, dst string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.edges[[2]string{src, dst}]
	return ok, nil
}

func (g *fakeGraph) GetNode(ctx context.Context, id string) (map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	props, ok := g.nodes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return props, nil
}

func (g *fakeGraph) GetEdge(ctx context.Context, src, dst string) (map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	props, ok := g.edges[[2]string{src, dst}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return props, nil
}

func (g *fakeGraph) NodeDegree(ctx context.Context, id string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	degree := 0
	for pair := range g.edges {
		if pair[0] == id || pair[1] == id {
			degree++
		}
	}
	return degree, nil
}

func (g *fakeGraph) UpsertNode(ctx context.Context, id string, props map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.nodes[id] == nil {
		g.nodes[id] = make(map[string]string)
	}
	for k, v := range props {
		g.nodes[id][k] = v
	}
	return nil
}

func (g *fakeGraph) UpsertEdge(ctx context.Context, src, dst string, props map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := [2]string{src, dst}
	if g.edges[key] == nil {
		g.edges[key] = make(map[string]string)
	}
	for k, v := range props {
		g.edges[key][k] = v
	}
	return nil
}

func (g *fakeGraph) DeleteNode(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.nodes, id)
	for pair := range g.edges {
		if pair[0] == id || pair[1] == id {
			delete(g.edges, pair)
		}
	}
	return nil
}

func (g *fakeGraph) GetNodes(ctx context.Context, ids []string) (map[string]map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]map[string]string)
	for _, id := range ids {
		if props, ok := g.nodes[id]; ok {
			out[id] = props
		}
	}
	return out, nil
}

func (g *fakeGraph) NodeDegrees(ctx context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range ids {
		d, _ := g.NodeDegree(ctx, id)
		out[id] = d
	}
	return out, nil
}

func (g *fakeGraph) GetEdges(ctx context.Context, pairs [][2]string) (map[[2]string]map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[[2]string]map[string]string)
	for _, pair := range pairs {
		if props, ok := g.edges[pair]; ok {
			out[pair] = props
		}
	}
	return out, nil
}

func (g *fakeGraph) Neighborhood(ctx context.Context, start string, maxDepth, maxNodes int) (*core.Subgraph, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.neighborhoodErr != nil {
		return nil, g.neighborhoodErr
	}
	if start != "" {
		if _, ok := g.nodes[start]; !ok {
			return &core.Subgraph{}, nil
		}
	}
	// Small fake: the whole graph always fits.
	sg := &core.Subgraph{}
	for id, props := range g.nodes {
		sg.Nodes = append(sg.Nodes, core.GraphNode{ID: id, Properties: props})
	}
	for pair, props := range g.edges {
		sg.Edges = append(sg.Edges, core.GraphEdge{Source: pair[0], Target: pair[1], Properties: props})
	}
	return sg, nil
}

func (g *fakeGraph) Drop(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes = make(map[string]map[string]string)
	g.edges = make(map[[2]string]map[string]string)
	return nil
}

const testExtractionJSON = `{
  "entities": [
    {"name": "ada lovelace", "type": "person", "description": "early programmer"},
    {"name": "analytical engine", "type": "machine"}
  ],
  "relations": [
    {"source": "ada lovelace", "target": "analytical engine", "description": "wrote notes on"}
  ]
}`

type testEnv struct {
	engine    *Engine
	registry  *storage.Registry
	graph     *fakeGraph
	provider  *mock.MockProvider
	completer *mock.MockCompleter
}

// newTestEnv wires an engine to an in-memory badger vector store, a fake
// graph store and mock AI services. The mock completer answers
// extraction prompts with fixed JSON and everything else with a canned
// answer.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	graph := newFakeGraph()
	reg, err := storage.NewRegistry(
		storage.WithGraphFactory(func(namespace string, cfg storage.Config) (storage.GraphStore, error) {
			return graph, nil
		}),
		storage.WithVectorFactory(badger.New),
	)
	require.NoError(t, err)
	t.Cleanup(func() { reg.CloseAll(context.Background()) })

	provider := mock.NewMockProvider().(*mock.MockProvider)
	completer := provider.GetMockCompleter()
	completer.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		if strings.Contains(system, "Extract the named entities") {
			return testExtractionJSON, nil
		}
		return "the canned answer", nil
	}

	eng, err := New("docs", reg, provider,
		storage.Config{URI: "bolt://localhost:7687", Username: "neo4j", Password: "secret"},
		storage.Config{InMemory: true, Threshold: 0.1},
		WithChunker(50, 5),
	)
	require.NoError(t, err)
	require.NoError(t, eng.InitStorages(context.Background()))

	return &testEnv{engine: eng, registry: reg, graph: graph, provider: provider, completer: completer}
}

func TestNewRejectsBadArguments(t *testing.T) {
	reg, err := storage.NewRegistry()
	require.NoError(t, err)

	_, err = New("", reg, mock.NewMockProvider(), storage.Config{}, storage.Config{})
	assert.Error(t, err)

	_, err = New("docs", nil, mock.NewMockProvider(), storage.Config{}, storage.Config{})
	assert.Error(t, err)

	_, err = New("docs", reg, nil, storage.Config{}, storage.Config{})
	assert.Error(t, err)
}

func TestInitStoragesIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	assert.Equal(t, 2, env.registry.Len())
	require.NoError(t, env.engine.InitStorages(ctx))
	assert.Equal(t, 2, env.registry.Len())

	require.NoError(t, env.engine.FinalizeStorages(ctx))
	assert.Equal(t, 0, env.registry.Len())
}

func TestInsertStoresChunksAndGraph(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	doc := &core.Document{Content: "Ada Lovelace wrote notes on the analytical engine."}
	res, err := env.engine.Insert(ctx, doc)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID, "Insert should derive a content ID")
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, 2, res.Entities)

	ok, err := env.graph.HasNode(ctx, "ada lovelace")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.graph.HasEdge(ctx, "ada lovelace", "analytical engine")
	require.NoError(t, err)
	assert.True(t, ok)

	has, err := env.engine.Has(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestInsertRejectsEmptyDocument(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Insert(context.Background(), &core.Document{Content: "   "})
	assert.ErrorIs(t, err, core.ErrEmptyContent)
}

func TestInsertFailsWhenStoragesNotInitialized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.engine.FinalizeStorages(ctx))

	_, err := env.engine.Insert(ctx, &core.Document{Content: "orphaned text"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHasBeforeInsert(t *testing.T) {
	env := newTestEnv(t)

	has, err := env.engine.Has(context.Background(), "doc-never-seen")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestQueryNaive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	content := "Ada Lovelace wrote notes on the analytical engine."
	_, err := env.engine.Insert(ctx, &core.Document{ID: "doc-ada", Content: content})
	require.NoError(t, err)

	// Identical text embeds identically under the mock, so similarity is 1.
	res, err := env.engine.Query(ctx, content, core.QueryParams{Mode: core.ModeNaive, TopK: 3})
	require.NoError(t, err)

	assert.Equal(t, "the canned answer", res.Text)
	assert.InDelta(t, 1.0, res.Score, 0.01)
	assert.Equal(t, []string{"doc-ada"}, res.Sources)

	// Naive mode never consults the graph, so only the ingest extraction
	// and the answer completion hit the model.
	prompts := env.completer.Prompts()
	require.Len(t, prompts, 2)
	assert.NotContains(t, prompts[1], "Knowledge graph context")
}

func TestQueryHybridIncludesGraphContext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	content := "Ada Lovelace wrote notes on the analytical engine."
	_, err := env.engine.Insert(ctx, &core.Document{ID: "doc-ada", Content: content})
	require.NoError(t, err)

	res, err := env.engine.Query(ctx, content, core.QueryParams{Mode: core.ModeHybrid, TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, "the canned answer", res.Text)

	prompts := env.completer.Prompts()
	answerPrompt := prompts[len(prompts)-1]
	assert.Contains(t, answerPrompt, "Knowledge graph context")
	assert.Contains(t, answerPrompt, "ada lovelace")
	assert.Contains(t, answerPrompt, "ada lovelace -> analytical engine")
}

func TestQueryDegradesWhenGraphUnavailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	content := "Ada Lovelace wrote notes on the analytical engine."
	_, err := env.engine.Insert(ctx, &core.Document{ID: "doc-ada", Content: content})
	require.NoError(t, err)

	env.graph.neighborhoodErr = errors.New("graph offline")
	res, err := env.engine.Query(ctx, content, core.QueryParams{Mode: core.ModeGlobal, TopK: 3})
	require.NoError(t, err, "graph failure should degrade to vector-only retrieval")
	assert.Equal(t, "the canned answer", res.Text)
}

func TestQueryNoMatches(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.engine.Query(context.Background(), "anything at all", core.QueryParams{})
	require.NoError(t, err)
	assert.Empty(t, res.Text)
	assert.Zero(t, res.Score)
	assert.Empty(t, res.Sources)
}

func TestQueryValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.Query(ctx, "  ", core.QueryParams{})
	assert.ErrorIs(t, err, core.ErrEmptyQuery)

	_, err = env.engine.Query(ctx, "valid question", core.QueryParams{Mode: "telepathic"})
	assert.ErrorIs(t, err, core.ErrInvalidMode)
}

func TestExtractGraphParsesFencedJSON(t *testing.T) {
	env := newTestEnv(t)
	env.completer.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return "```json\n" + testExtractionJSON + "\n```", nil
	}

	ext, err := env.engine.extractGraph(context.Background(), "some text")
	require.NoError(t, err)
	assert.Len(t, ext.Entities, 2)
	assert.Len(t, ext.Relations, 1)
}

func TestExtractGraphRetriesMalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	calls := 0
	env.completer.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		calls++
		if calls < 3 {
			return "sorry, here is your JSON:", nil
		}
		return testExtractionJSON, nil
	}

	ext, err := env.engine.extractGraph(context.Background(), "some text")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, ext.Entities, 2)
}

func TestExtractGraphDegradesToEmptyAfterRetries(t *testing.T) {
	env := newTestEnv(t)
	env.completer.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return "not json, ever", nil
	}

	ext, err := env.engine.extractGraph(context.Background(), "some text")
	require.NoError(t, err, "unparseable extraction must not fail ingestion")
	assert.Empty(t, ext.Entities)
	assert.Equal(t, 3, env.completer.CallCount())
}

func TestExtractGraphPropagatesTransportError(t *testing.T) {
	env := newTestEnv(t)
	env.completer.CompleteFunc = func(ctx context.Context, system, prompt string) (string, error) {
		return "", errors.New("connection refused")
	}

	_, err := env.engine.extractGraph(context.Background(), "some text")
	assert.Error(t, err)
}
