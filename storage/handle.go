package storage

import (
	"fmt"
	"sync"
)

// Kind identifies the category of a storage backend.
type Kind int

const (
	// KindGraph is a property-graph backend.
	KindGraph Kind = iota + 1
	// KindVector is an embedding similarity backend.
	KindVector
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindGraph:
		return "graph"
	case KindVector:
		return "vector"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// HandleState is the lifecycle state of a backend handle.
//
// Valid transitions:
//
//	Uninitialized -> Initializing -> {Ready, Error}
//	Ready -> Closed
//
// An Error handle may be evicted from the registry, after which its key is
// free for a fresh creation attempt.
type HandleState int

const (
	StateUninitialized HandleState = iota
	StateInitializing
	StateReady
	StateError
	StateClosed
)

// String returns the lowercase name of the state.
func (s HandleState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Handle wraps one live storage backend together with its lifecycle state
// and the configuration it was created from. The underlying backend is
// exclusively owned by the handle; callers obtain it via Graph or Vector
// and must not close it themselves.
type Handle struct {
	kind      Kind
	namespace string
	cfg       Config

	graph  GraphStore
	vector VectorStore

	mu      sync.Mutex
	state   HandleState
	lastErr error
}

func newHandle(kind Kind, namespace string, cfg Config) *Handle {
	return &Handle{
		kind:      kind,
		namespace: namespace,
		cfg:       cfg,
		state:     StateUninitialized,
	}
}

// Kind returns the backend kind.
func (h *Handle) Kind() Kind { return h.kind }

// Namespace returns the isolation namespace the backend is scoped to.
func (h *Handle) Namespace() string { return h.namespace }

// Config returns the configuration the backend was created from.
func (h *Handle) Config() Config { return h.cfg }

// State returns the current lifecycle state.
func (h *Handle) State() HandleState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// LastErr returns the error that moved the handle into the Error state,
// or nil.
func (h *Handle) LastErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Graph returns the underlying graph backend. It is nil for vector handles.
func (h *Handle) Graph() GraphStore { return h.graph }

// Vector returns the underlying vector backend. It is nil for graph handles.
func (h *Handle) Vector() VectorStore { return h.vector }

func (h *Handle) setState(s HandleState) {
	h.mu.Lock()
	h.state = s
	h.mu.Unlock()
}

func (h *Handle) setError(err error) {
	h.mu.Lock()
	h.state = StateError
	h.lastErr = err
	h.mu.Unlock()
}

// backend returns the underlying backend through its common interface.
func (h *Handle) backend() Backend {
	if h.kind == KindGraph {
		return h.graph
	}
	return h.vector
}
