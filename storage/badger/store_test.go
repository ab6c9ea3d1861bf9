package badger

import (
	"context"
	"testing"

	"github.com/stratadb/strata/core"
	"github.com/stratadb/strata/storage"
)

// newMemoryStore creates an initialized in-memory store for tests.
func newMemoryStore(t *testing.T, namespace string) storage.VectorStore {
	t.Helper()

	store, err := New(namespace, storage.Config{InMemory: true, Threshold: 0.1})
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Finalize(context.Background()) })
	return store
}

func TestUpsertAndQuery(t *testing.T) {
	store := newMemoryStore(t, "default")
	ctx := context.Background()

	records := []*core.VectorRecord{
		{ID: "a", Content: "about cats", Vector: []float32{1, 0, 0}},
		{ID: "b", Content: "about dogs", Vector: []float32{0.9, 0.1, 0}},
		{ID: "c", Content: "about planes", Vector: []float32{0, 0, 1}},
	}
	if err := store.Upsert(ctx, records...); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	matches, err := store.Query(ctx, []float32{1, 0, 0}, 10)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}

	// "c" is orthogonal to the query and must be filtered by the threshold.
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(matches))
	}
	if matches[0].Record.ID != "a" {
		t.Fatalf("Expected best match 'a', got %q", matches[0].Record.ID)
	}
	if matches[0].Score < matches[1].Score {
		t.Fatal("Expected matches ordered by descending similarity")
	}
}

func TestQueryTopK(t *testing.T) {
	store := newMemoryStore(t, "default")
	ctx := context.Background()

	for _, rec := range []*core.VectorRecord{
		{ID: "a", Vector: []float32{1, 0}},
		{ID: "b", Vector: []float32{0.9, 0.1}},
		{ID: "c", Vector: []float32{0.8, 0.2}},
	} {
		if err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
	}

	matches, err := store.Query(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("Expected topK to cap results at 2, got %d", len(matches))
	}
}

func TestUpsertReplacesExisting(t *testing.T) {
	store := newMemoryStore(t, "default")
	ctx := context.Background()

	if err := store.Upsert(ctx, &core.VectorRecord{ID: "a", Content: "old", Vector: []float32{1, 0}}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if err := store.Upsert(ctx, &core.VectorRecord{ID: "a", Content: "new", Vector: []float32{1, 0}}); err != nil {
		t.Fatalf("Failed to upsert replacement: %v", err)
	}

	matches, err := store.Query(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected 1 record after replacement, got %d", len(matches))
	}
	if matches[0].Record.Content != "new" {
		t.Fatalf("Expected replaced content, got %q", matches[0].Record.Content)
	}
}

func TestHasAndDelete(t *testing.T) {
	store := newMemoryStore(t, "default")
	ctx := context.Background()

	if err := store.Upsert(ctx, &core.VectorRecord{ID: "a", Vector: []float32{1}}); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	found, err := store.Has(ctx, "a")
	if err != nil || !found {
		t.Fatalf("Expected record to exist, found=%v err=%v", found, err)
	}

	found, err = store.Has(ctx, "missing")
	if err != nil || found {
		t.Fatalf("Expected record to be absent, found=%v err=%v", found, err)
	}

	if err := store.Delete(ctx, "a", "missing"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	found, err = store.Has(ctx, "a")
	if err != nil || found {
		t.Fatalf("Expected record to be deleted, found=%v err=%v", found, err)
	}
}

func TestNamespaceKeys(t *testing.T) {
	// Keys for different namespaces must never collide, and the namespace
	// prefix must cover exactly its own records.
	keyA := string(makeRecordKey("alpha", "doc-1"))
	keyB := string(makeRecordKey("beta", "doc-1"))
	if keyA == keyB {
		t.Fatalf("Expected distinct keys across namespaces, both were %q", keyA)
	}

	prefix := string(namespacePrefix("alpha"))
	if keyA[:len(prefix)] != prefix {
		t.Fatalf("Expected %q to be covered by prefix %q", keyA, prefix)
	}
	if len(keyB) >= len(prefix) && keyB[:len(prefix)] == prefix {
		t.Fatalf("Expected %q not to be covered by prefix %q", keyB, prefix)
	}
}

func TestDrop(t *testing.T) {
	store := newMemoryStore(t, "default")
	ctx := context.Background()

	if err := store.Upsert(ctx,
		&core.VectorRecord{ID: "a", Vector: []float32{1}},
		&core.VectorRecord{ID: "b", Vector: []float32{1}},
	); err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}

	if err := store.Drop(ctx); err != nil {
		t.Fatalf("Failed to drop: %v", err)
	}

	for _, id := range []string{"a", "b"} {
		found, err := store.Has(ctx, id)
		if err != nil || found {
			t.Fatalf("Expected %q gone after drop, found=%v err=%v", id, found, err)
		}
	}
}

func TestOperationsAfterFinalize(t *testing.T) {
	store := newMemoryStore(t, "default")
	ctx := context.Background()

	if err := store.Finalize(ctx); err != nil {
		t.Fatalf("Failed to finalize: %v", err)
	}

	if err := store.Ping(ctx); err == nil {
		t.Fatal("Expected Ping to fail on a closed store")
	}
	if err := store.Upsert(ctx, &core.VectorRecord{ID: "a"}); err == nil {
		t.Fatal("Expected Upsert to fail on a closed store")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := cosineSimilarity([]float32{1, 0}, []float32{1, 0}); got < 0.999 {
		t.Fatalf("Expected identical vectors to score ~1, got %v", got)
	}
	if got := cosineSimilarity([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("Expected orthogonal vectors to score 0, got %v", got)
	}
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("Expected zero vector to score 0, got %v", got)
	}
}
