package ai

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to be valid: %v", err)
	}
}

func TestNewConfigOptions(t *testing.T) {
	cfg := NewConfig(
		WithHost("http://models.internal:8000"),
		WithEmbeddingModel("text-embedding-3-small"),
		WithCompletionModel("gpt-4o-mini"),
		WithToken("sk-test"),
	)

	if cfg.EmbeddingHost != "http://models.internal:8000" {
		t.Fatalf("Expected shared host, got %q", cfg.EmbeddingHost)
	}
	if cfg.CompletionHost != cfg.EmbeddingHost {
		t.Fatal("Expected WithHost to set both hosts")
	}
	if cfg.Token != "sk-test" {
		t.Fatalf("Expected token set, got %q", cfg.Token)
	}
}

func TestNormalizeAddsV1Suffix(t *testing.T) {
	cfg := NewConfig(WithHost("http://localhost:11434/"))
	cfg.Normalize()

	if !strings.HasSuffix(cfg.EmbeddingHost, "/v1") {
		t.Fatalf("Expected /v1 suffix, got %q", cfg.EmbeddingHost)
	}
	if strings.Contains(cfg.EmbeddingHost, "//v1") {
		t.Fatalf("Expected trailing slash trimmed before suffixing, got %q", cfg.EmbeddingHost)
	}

	// Already-normalized hosts are left alone.
	before := cfg.EmbeddingHost
	cfg.Normalize()
	if cfg.EmbeddingHost != before {
		t.Fatalf("Expected idempotent normalization, got %q", cfg.EmbeddingHost)
	}
}

func TestValidateRejectsIncompleteConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }},
		{"missing completion host", func(c *Config) { c.CompletionHost = "" }},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }},
		{"missing completion model", func(c *Config) { c.CompletionModel = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("Expected validation to fail")
			}
		})
	}
}
