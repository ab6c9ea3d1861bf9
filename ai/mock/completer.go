package mock

import (
	"context"
	"sync"
)

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	CompleteFunc func(ctx context.Context, system, prompt string) (string, error)

	// Response is returned when CompleteFunc is nil. Empty means the
	// prompt is echoed back.
	Response string

	mu        sync.Mutex
	callCount int
	prompts   []string
}

// NewMockCompleter creates a mock completer that echoes prompts.
func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// Complete returns the canned response, or echoes the prompt.
func (m *MockCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, prompt)
	}
	if m.Response != "" {
		return m.Response, nil
	}
	return prompt, nil
}

// CallCount returns the number of Complete calls.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Prompts returns every prompt passed to Complete, in order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}
