package storage

import (
	"context"

	"github.com/stratadb/strata/core"
)

// Backend provides the lifecycle operations common to every storage backend.
// Construction performs no I/O; Initialize opens the physical connection.
type Backend interface {
	// Initialize opens the backend connection and prepares it for use.
	// It must be called before any other operation.
	Initialize(ctx context.Context) error

	// Finalize flushes and closes the backend. The backend must not be
	// used after Finalize returns.
	Finalize(ctx context.Context) error

	// Ping probes backend liveness. It returns an error if the backend
	// is unreachable or unhealthy.
	Ping(ctx context.Context) error
}

// GraphStore is a property-graph backend scoped to a single namespace.
// Implementations must be thread-safe once initialized.
type GraphStore interface {
	Backend

	// HasNode reports whether a node with the given ID exists.
	HasNode(ctx context.Context, id string) (bool, error)

	// HasEdge reports whether an edge from src to dst exists.
	HasEdge(ctx context.Context, src, dst string) (bool, error)

	// GetNode retrieves a node's properties.
	// Returns ErrNotFound if the node doesn't exist.
	GetNode(ctx context.Context, id string) (map[string]string, error)

	// GetEdge retrieves an edge's properties.
	// Returns ErrNotFound if the edge doesn't exist.
	GetEdge(ctx context.Context, src, dst string) (map[string]string, error)

	// NodeDegree returns the number of edges attached to a node.
	// A missing node has degree zero.
	NodeDegree(ctx context.Context, id string) (int, error)

	// UpsertNode creates a node or merges properties into an existing one.
	UpsertNode(ctx context.Context, id string, props map[string]string) error

	// UpsertEdge creates an edge or merges properties into an existing one.
	// Both endpoints are created if absent.
	UpsertEdge(ctx context.Context, src, dst string, props map[string]string) error

	// DeleteNode removes a node and all edges attached to it.
	// Deleting an absent node is a no-op.
	DeleteNode(ctx context.Context, id string) error

	// GetNodes retrieves properties for multiple nodes in one round trip.
	// Missing nodes are absent from the result (no error).
	GetNodes(ctx context.Context, ids []string) (map[string]map[string]string, error)

	// NodeDegrees returns degrees for multiple nodes in one round trip.
	NodeDegrees(ctx context.Context, ids []string) (map[string]int, error)

	// GetEdges retrieves properties for multiple (src, dst) pairs in one
	// round trip. Missing edges are absent from the result.
	GetEdges(ctx context.Context, pairs [][2]string) (map[[2]string]map[string]string, error)

	// Neighborhood returns the subgraph reachable from the start node
	// within maxDepth hops, capped at maxNodes nodes. An empty start
	// returns a sample of the whole graph up to maxNodes.
	Neighborhood(ctx context.Context, start string, maxDepth, maxNodes int) (*core.Subgraph, error)

	// Drop removes all data in the namespace.
	Drop(ctx context.Context) error
}

// VectorStore is an embedding store scoped to a single namespace.
// Implementations must be thread-safe once initialized.
type VectorStore interface {
	Backend

	// Upsert stores records, replacing any existing record with the same ID.
	Upsert(ctx context.Context, records ...*core.VectorRecord) error

	// Query returns up to topK records most similar to the given vector,
	// ordered by descending similarity. Records below the store's
	// similarity threshold are excluded.
	Query(ctx context.Context, vector []float32, topK int) ([]*core.Match, error)

	// Has reports whether a record with the given ID exists.
	Has(ctx context.Context, id string) (bool, error)

	// Delete removes records by ID. Missing IDs are ignored.
	Delete(ctx context.Context, ids ...string) error

	// Drop removes all records in the namespace.
	Drop(ctx context.Context) error
}

// GraphFactory constructs an uninitialized GraphStore for a namespace.
type GraphFactory func(namespace string, cfg Config) (GraphStore, error)

// VectorFactory constructs an uninitialized VectorStore for a namespace.
type VectorFactory func(namespace string, cfg Config) (VectorStore, error)
