package core

import (
	"encoding/hex"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// IDFromContent generates a deterministic document ID from text content using
// BLAKE2b hashing. Identical content always produces the same ID, which is
// what makes duplicate detection during ingestion possible.
func IDFromContent(text string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(text))
	return "doc-" + hex.EncodeToString(h.Sum(nil))
}

// QueryMode selects the retrieval strategy used by a layer's engine.
type QueryMode string

const (
	// ModeNaive answers from vector similarity context only.
	ModeNaive QueryMode = "naive"
	// ModeLocal augments the context with the graph neighborhood of
	// entities mentioned in the query.
	ModeLocal QueryMode = "local"
	// ModeGlobal augments the context with a wide subgraph summary.
	ModeGlobal QueryMode = "global"
	// ModeHybrid combines local and global graph context.
	ModeHybrid QueryMode = "hybrid"
)

// Document is a unit of ingested content.
// If ID is empty it is derived from Content via IDFromContent.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// QueryParams carries per-query engine parameters.
type QueryParams struct {
	Mode QueryMode
	TopK int // maximum vector matches to feed into the answer context
}

// LayerResult is the outcome of querying a single layer.
type LayerResult struct {
	Layer       string
	Text        string
	Priority    int
	Namespace   string
	Description string
	// Score is a confidence estimate in [0,1]. Engines that do not report
	// confidence leave it at zero.
	Score   float64
	Sources []string
}

// IngestStats summarizes one document ingestion.
type IngestStats struct {
	Chunks   int
	Entities int
}

// Answer is a generated response grounded in retrieved material.
type Answer struct {
	// Text is the generated answer, empty when nothing relevant was found.
	Text string
	// Score is the best vector similarity among the retrieved passages.
	Score float64
	// Sources lists the document IDs the answer was grounded in.
	Sources []string
}

// InsertError records one failed document within a batch insert.
type InsertError struct {
	DocIndex int
	Err      string
}

// InsertReport aggregates the outcome of a batch insert into a layer.
// The batch always runs to completion; failures are collected here rather
// than aborting the remaining documents.
type InsertReport struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Errors    []InsertError
}

// VectorRecord is a stored, embedded chunk of a document.
type VectorRecord struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Vector     []float32
	InsertedAt time.Time
}

// Match is a vector search hit with its similarity score.
type Match struct {
	Record *VectorRecord
	Score  float64
}

// GraphNode is a node in a layer's knowledge graph.
type GraphNode struct {
	ID         string
	Properties map[string]string
}

// GraphEdge is a directed edge between two graph nodes.
type GraphEdge struct {
	Source     string
	Target     string
	Properties map[string]string
}

// Subgraph is a bounded slice of a knowledge graph returned by traversal.
type Subgraph struct {
	Nodes []GraphNode
	Edges []GraphEdge
}
