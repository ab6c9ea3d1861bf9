package neo4j

import (
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stratadb/strata/storage"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New("default", storage.Config{})
	if err == nil {
		t.Fatal("Expected config validation to fail without a URI")
	}

	store, err := New("default", storage.Config{URI: "neo4j://localhost:7687"})
	if err != nil {
		t.Fatalf("Expected valid config to succeed: %v", err)
	}
	if store == nil {
		t.Fatal("Expected a store")
	}
}

func TestRecordProps(t *testing.T) {
	record := &neo4j.Record{
		Keys: []string{"props"},
		Values: []any{map[string]any{
			"id":          "paris",
			"namespace":   "default",
			"description": "capital of France",
			"weight":      int64(3),
		}},
	}

	props := recordProps(record, "props")
	if _, ok := props["id"]; ok {
		t.Fatal("Expected bookkeeping id key to be dropped")
	}
	if _, ok := props["namespace"]; ok {
		t.Fatal("Expected bookkeeping namespace key to be dropped")
	}
	if props["description"] != "capital of France" {
		t.Fatalf("Expected description preserved, got %q", props["description"])
	}
	if props["weight"] != "3" {
		t.Fatalf("Expected non-string values stringified, got %q", props["weight"])
	}
}

func TestRecordPropsMissingColumn(t *testing.T) {
	record := &neo4j.Record{Keys: []string{"other"}, Values: []any{nil}}
	props := recordProps(record, "props")
	if props == nil || len(props) != 0 {
		t.Fatalf("Expected empty map for a missing column, got %v", props)
	}
}

func TestRecordCount(t *testing.T) {
	if got := recordCount(nil); got != 0 {
		t.Fatalf("Expected 0 for no records, got %d", got)
	}
	record := &neo4j.Record{Keys: []string{"c"}, Values: []any{int64(7)}}
	if got := recordCount([]*neo4j.Record{record}); got != 7 {
		t.Fatalf("Expected 7, got %d", got)
	}
}
