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
	"fmt"
	"log/slog"
	"strings"

	"github.com/stratadb/strata/ai"
	"github.com/stratadb/strata/core"
	"github.com/stratadb/strata/storage"
)

const (
	// neighborhoodDepth bounds graph expansion at query time.
	neighborhoodDepth = 2
	// neighborhoodNodes caps the number of nodes fed into the answer prompt.
	neighborhoodNodes = 30
)

// Engine binds one graph/vector backend pair to the AI services needed
// for ingestion and retrieval. Backends are created lazily through the
// registry when InitStorages is called.
type Engine struct {
	namespace string
	registry  *storage.Registry
	graphCfg  storage.Config
	vectorCfg storage.Config
	embedder  ai.Embedder
	completer ai.Completer
	chunker   *Chunker
	logger    *slog.Logger
}

// Option configures an Engine during construction.
type Option func(*Engine) error

// WithChunker overrides the default chunking parameters.
func WithChunker(maxWords, overlap int) Option {
	return func(e *Engine) error {
		e.chunker = NewChunker(maxWords, overlap)
		return nil
	}
}

// WithLogger sets the logger used by the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		e.logger = logger
		return nil
	}
}

// New creates an engine for one namespace. The backends are not opened
// until InitStorages is called.
func New(namespace string, registry *storage.Registry, provider ai.Provider, graphCfg, vectorCfg storage.Config, opts ...Option) (*Engine, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry cannot be nil")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider cannot be nil")
	}

	e := &Engine{
		namespace: namespace,
		registry:  registry,
		graphCfg:  graphCfg,
		vectorCfg: vectorCfg,
		embedder:  provider.Embedder(),
		completer: provider.Completer(),
		chunker:   NewChunker(defaultChunkWords, defaultChunkOverlap),
		logger:    slog.Default().With("component", "engine", "namespace", namespace),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Namespace returns the storage namespace the engine operates in.
func (e *Engine) Namespace() string { return e.namespace }

// InitStorages creates and initializes the engine's backend pair. Safe
// to call more than once; already-created backends are reused.
func (e *Engine) InitStorages(ctx context.Context) error {
	_, _, err := e.registry.CreateAll(ctx, e.graphCfg, e.vectorCfg, e.namespace)
	return err
}

// FinalizeStorages tears down the engine's backend pair.
func (e *Engine) FinalizeStorages(ctx context.Context) error {
	e.registry.CloseNamespace(ctx, e.namespace)
	return nil
}

// Insert ingests one document: the content is chunked and embedded into
// the vector store, and the extracted entity graph is merged into the
// graph store. The document ID is derived from content when absent.
func (e *Engine) Insert(ctx context.Context, doc *core.Document) (*core.IngestStats, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = core.IDFromContent(doc.Content)
	}

	vector, err := e.vector()
	if err != nil {
		return nil, err
	}
	graph, err := e.graph()
	if err != nil {
		return nil, err
	}

	chunks := e.chunker.Split(doc.Content)
	if len(chunks) == 0 {
		return nil, core.ErrEmptyContent
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}
	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding document %s: %w", doc.ID, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]*core.VectorRecord, len(chunks))
	for i, c := range chunks {
		meta := map[string]string{"doc_id": doc.ID}
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		records[i] = &core.VectorRecord{
			ID:       chunkID(doc.ID, c.Index),
			Content:  c.Content,
			Metadata: meta,
			Vector:   vectors[i],
		}
	}
	if err := vector.Upsert(ctx, records...); err != nil {
		return nil, fmt.Errorf("storing document %s: %w", doc.ID, err)
	}

	ext, err := e.extractGraph(ctx, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("extracting entities from document %s: %w", doc.ID, err)
	}
	for _, ent := range ext.Entities {
		props := map[string]string{"type": ent.Type}
		if ent.Description != "" {
			props["description"] = ent.Description
		}
		if err := graph.UpsertNode(ctx, ent.Name, props); err != nil {
			return nil, fmt.Errorf("upserting entity %q: %w", ent.Name, err)
		}
	}
	for _, rel := range ext.Relations {
		props := map[string]string{}
		if rel.Description != "" {
			props["description"] = rel.Description
		}
		if err := graph.UpsertEdge(ctx, rel.Source, rel.Target, props); err != nil {
			return nil, fmt.Errorf("upserting relation %q->%q: %w", rel.Source, rel.Target, err)
		}
	}

	e.logger.Debug("document ingested",
		"doc", doc.ID,
		"chunks", len(chunks),
		"entities", len(ext.Entities),
		"relations", len(ext.Relations))

	return &core.IngestStats{Chunks: len(chunks), Entities: len(ext.Entities)}, nil
}

// Has reports whether a document with the given ID was already
// ingested. Used to skip duplicate work during batch insertion.
func (e *Engine) Has(ctx context.Context, docID string) (bool, error) {
	vector, err := e.vector()
	if err != nil {
		return false, err
	}
	// Every ingested document has at least chunk zero.
	return vector.Has(ctx, chunkID(docID, 0))
}

// Query retrieves relevant material and generates an answer. The mode
// controls graph involvement: naive uses vector search only, local
// expands the neighborhoods of entities found in the query, global
// samples the wider graph, and hybrid does both.
func (e *Engine) Query(ctx context.Context, query string, params core.QueryParams) (*core.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, core.ErrEmptyQuery
	}
	params = core.NormalizeParams(params)
	if err := core.ValidateMode(params.Mode); err != nil {
		return nil, err
	}

	vector, err := e.vector()
	if err != nil {
		return nil, err
	}

	qvec, err := e.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	matches, err := vector.Query(ctx, qvec, params.TopK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	if len(matches) == 0 {
		return &core.Answer{}, nil
	}

	passages := make([]string, len(matches))
	sources := make([]string, 0, len(matches))
	seen := make(map[string]bool)
	for i, m := range matches {
		passages[i] = m.Record.Content
		if docID := m.Record.Metadata["doc_id"]; docID != "" && !seen[docID] {
			seen[docID] = true
			sources = append(sources, docID)
		}
	}

	graphContext := ""
	if params.Mode != core.ModeNaive {
		graphContext, err = e.buildGraphContext(ctx, query, params.Mode)
		if err != nil {
			// Retrieval degrades to vector-only rather than failing the query.
			e.logger.Warn("graph context unavailable", "mode", params.Mode, "err", err)
			graphContext = ""
		}
	}

	answer, err := e.completer.Complete(ctx, answerSystemPrompt, buildAnswerPrompt(query, passages, graphContext))
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &core.Answer{
		Text:    strings.TrimSpace(answer),
		Score:   matches[0].Score,
		Sources: sources,
	}, nil
}

// buildGraphContext expands graph neighborhoods according to the query
// mode and renders them as prompt text.
func (e *Engine) buildGraphContext(ctx context.Context, query string, mode core.QueryMode) (string, error) {
	graph, err := e.graph()
	if err != nil {
		return "", err
	}

	var subgraphs []*core.Subgraph

	if mode == core.ModeLocal || mode == core.ModeHybrid {
		ext, err := e.extractGraph(ctx, query)
		if err != nil {
			return "", err
		}
		for _, ent := range ext.Entities {
			sg, err := graph.Neighborhood(ctx, ent.Name, neighborhoodDepth, neighborhoodNodes)
			if err != nil {
				return "", err
			}
			subgraphs = append(subgraphs, sg)
		}
	}

	if mode == core.ModeGlobal || mode == core.ModeHybrid {
		sg, err := graph.Neighborhood(ctx, "", neighborhoodDepth, neighborhoodNodes)
		if err != nil {
			return "", err
		}
		subgraphs = append(subgraphs, sg)
	}

	return renderSubgraphs(subgraphs), nil
}

// renderSubgraphs flattens subgraphs into a deduplicated text block.
func renderSubgraphs(subgraphs []*core.Subgraph) string {
	var b strings.Builder
	seenNodes := make(map[string]bool)
	seenEdges := make(map[string]bool)

	for _, sg := range subgraphs {
		if sg == nil {
			continue
		}
		for _, n := range sg.Nodes {
			if seenNodes[n.ID] {
				continue
			}
			seenNodes[n.ID] = true
			if t := n.Properties["type"]; t != "" {
				fmt.Fprintf(&b, "- %s (%s)", n.ID, t)
			} else {
				fmt.Fprintf(&b, "- %s", n.ID)
			}
			if d := n.Properties["description"]; d != "" {
				fmt.Fprintf(&b, ": %s", d)
			}
			b.WriteString("\n")
		}
		for _, edge := range sg.Edges {
			key := edge.Source + "->" + edge.Target
			if seenEdges[key] {
				continue
			}
			seenEdges[key] = true
			if d := edge.Properties["description"]; d != "" {
				fmt.Fprintf(&b, "- %s -> %s: %s\n", edge.Source, edge.Target, d)
			} else {
				fmt.Fprintf(&b, "- %s -> %s\n", edge.Source, edge.Target)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// vector returns the namespace's vector store, which must have been
// created via InitStorages.
func (e *Engine) vector() (storage.VectorStore, error) {
	h := e.registry.Handle(storage.KindVector, e.namespace)
	if h == nil || h.State() != storage.StateReady {
		return nil, fmt.Errorf("%w: vector store for namespace %s not initialized", storage.ErrNotFound, e.namespace)
	}
	return h.Vector(), nil
}

// graph returns the namespace's graph store.
func (e *Engine) graph() (storage.GraphStore, error) {
	h := e.registry.Handle(storage.KindGraph, e.namespace)
	if h == nil || h.State() != storage.StateReady {
		return nil, fmt.Errorf("%w: graph store for namespace %s not initialized", storage.ErrNotFound, e.namespace)
	}
	return h.Graph(), nil
}

// chunkID derives the vector record key for one chunk of a document.
func chunkID(docID string, index int) string {
	return fmt.Sprintf("%s:%d", docID, index)
}
