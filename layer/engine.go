package layer

import (
	"context"

	"github.com/stratadb/strata/core"
)

// Engine is the retrieval capability a layer delegates to. Implementations
// own the layer's storage pair and the AI services behind it.
type Engine interface {
	// InitStorages opens the engine's backends. Must be idempotent.
	InitStorages(ctx context.Context) error

	// FinalizeStorages tears the engine's backends down best-effort.
	FinalizeStorages(ctx context.Context) error

	// Insert ingests one document and reports what was stored.
	Insert(ctx context.Context, doc *core.Document) (*core.IngestStats, error)

	// Has reports whether a document with the given ID was already ingested.
	Has(ctx context.Context, docID string) (bool, error)

	// Query answers a question from the layer's stored knowledge. An
	// answer with empty Text means the layer had nothing relevant.
	Query(ctx context.Context, query string, params core.QueryParams) (*core.Answer, error)
}

// EngineFactory constructs the retrieval engine for one layer. Called
// once per enabled descriptor during Stack.Initialize.
type EngineFactory func(d Descriptor) (Engine, error)
