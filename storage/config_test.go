package storage

import (
	"strings"
	"testing"
)

func TestValidateConfigGraph(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		wantValid   bool
		wantProblem string
	}{
		{
			name:      "valid neo4j uri",
			cfg:       Config{URI: "neo4j://localhost:7687"},
			wantValid: true,
		},
		{
			name:      "valid bolt uri",
			cfg:       Config{URI: "bolt+s://db.example.com:7687"},
			wantValid: true,
		},
		{
			name:        "missing uri",
			cfg:         Config{},
			wantProblem: "uri is required",
		},
		{
			name:        "wrong scheme",
			cfg:         Config{URI: "http://localhost:7687"},
			wantProblem: "must use one of the schemes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, problems := ValidateConfig(KindGraph, tt.cfg)
			if valid != tt.wantValid {
				t.Fatalf("Expected valid=%v, got %v (problems: %v)", tt.wantValid, valid, problems)
			}
			if tt.wantProblem == "" {
				if len(problems) != 0 {
					t.Fatalf("Expected no problems, got %v", problems)
				}
				return
			}
			found := false
			for _, p := range problems {
				if strings.Contains(p, tt.wantProblem) {
					found = true
				}
			}
			if !found {
				t.Fatalf("Expected a problem containing %q, got %v", tt.wantProblem, problems)
			}
		})
	}
}

func TestValidateConfigVector(t *testing.T) {
	valid, problems := ValidateConfig(KindVector, Config{Path: "/var/lib/strata/vectors"})
	if !valid {
		t.Fatalf("Expected valid, got problems %v", problems)
	}

	valid, _ = ValidateConfig(KindVector, Config{InMemory: true})
	if !valid {
		t.Fatal("Expected in-memory config without path to be valid")
	}

	valid, problems = ValidateConfig(KindVector, Config{})
	if valid {
		t.Fatal("Expected missing path to be invalid")
	}
	if len(problems) != 1 {
		t.Fatalf("Expected 1 problem, got %v", problems)
	}

	valid, _ = ValidateConfig(KindVector, Config{InMemory: true, Threshold: 1.5})
	if valid {
		t.Fatal("Expected out-of-range threshold to be invalid")
	}
}

func TestValidateConfigUnknownKind(t *testing.T) {
	valid, problems := ValidateConfig(Kind(99), Config{})
	if valid || len(problems) == 0 {
		t.Fatalf("Expected unknown kind to be invalid, got valid=%v problems=%v", valid, problems)
	}
}
