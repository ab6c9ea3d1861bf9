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


package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

type handleKey struct {
	kind      Kind
	namespace string
}

func (k handleKey) String() string {
	return k.kind.String() + "/" + k.namespace
}

// Registry is a keyed cache of storage backend handles. It guarantees at
// most one Ready handle per (kind, namespace) key: concurrent Create calls
// for the same key perform a single physical initialization, with late
// callers receiving the cached handle.
type Registry struct {
	graphFactory  GraphFactory
	vectorFactory VectorFactory
	opTimeout     time.Duration
	logger        *slog.Logger

	mu       sync.Mutex
	handles  map[handleKey]*Handle
	inflight map[handleKey]chan struct{}
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry) error

// WithGraphFactory sets the constructor used for graph backends.
func WithGraphFactory(f GraphFactory) RegistryOption {
	return func(r *Registry) error {
		r.graphFactory = f
		return nil
	}
}

// WithVectorFactory sets the constructor used for vector backends.
func WithVectorFactory(f VectorFactory) RegistryOption {
	return func(r *Registry) error {
		r.vectorFactory = f
		return nil
	}
}

// WithOpTimeout bounds every backend initialize/probe/teardown call with a
// deadline. Zero disables the bound.
func WithOpTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) error {
		if d < 0 {
			return fmt.Errorf("op timeout must not be negative, got %v", d)
		}
		r.opTimeout = d
		return nil
	}
}

// WithRegistryLogger sets a custom logger.
// Default is slog.Default().
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	r := &Registry{
		handles:  make(map[handleKey]*Handle),
		inflight: make(map[handleKey]chan struct{}),
		logger:   slog.Default().With("component", "storage-registry"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Create returns the Ready handle for (kind, namespace), creating it if
// necessary.
//
// If a Ready handle is already cached, it is returned unchanged without a
// second backend initialization. A cached handle in the Error state is
// evicted first and creation proceeds fresh. When another caller is already
// creating the same key, Create waits for that creation and then re-checks
// the cache instead of racing to open a duplicate connection.
//
// Creation failures are typed: ErrInvalidConfig for a bad configuration,
// ErrConnectionFailed when the backend's initialization fails. A handle
// that failed to initialize is never registered.
func (r *Registry) Create(ctx context.Context, kind Kind, namespace string, cfg Config) (*Handle, error) {
	key := handleKey{kind: kind, namespace: namespace}

	var done chan struct{}
	for {
		r.mu.Lock()
		if h, ok := r.handles[key]; ok {
			if h.State() == StateReady {
				r.mu.Unlock()
				return h, nil
			}
			r.logger.Warn("evicting failed storage handle before recreation",
				"key", key.String(), "state", h.State().String(), "err", h.LastErr())
			delete(r.handles, key)
		}
		ch, busy := r.inflight[key]
		if !busy {
			done = make(chan struct{})
			r.inflight[key] = done
			r.mu.Unlock()
			break
		}
		r.mu.Unlock()

		// Another caller is creating this key; wait and re-check.
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	h, err := r.buildHandle(ctx, kind, namespace, cfg)

	r.mu.Lock()
	delete(r.inflight, key)
	if err == nil {
		r.handles[key] = h
	}
	r.mu.Unlock()
	close(done)

	if err != nil {
		return nil, err
	}
	return h, nil
}

// buildHandle validates the config, constructs the backend and runs its
// initialization. The returned handle is Ready; on any failure no handle
// is returned.
func (r *Registry) buildHandle(ctx context.Context, kind Kind, namespace string, cfg Config) (*Handle, error) {
	if ok, problems := ValidateConfig(kind, cfg); !ok {
		return nil, fmt.Errorf("%w: %s/%s: %s",
			ErrInvalidConfig, kind, namespace, strings.Join(problems, "; "))
	}

	h := newHandle(kind, namespace, cfg)

	switch kind {
	case KindGraph:
		if r.graphFactory == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoFactory, kind)
		}
		store, err := r.graphFactory(namespace, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %w", ErrInvalidConfig, kind, namespace, err)
		}
		h.graph = store
	case KindVector:
		if r.vectorFactory == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoFactory, kind)
		}
		store, err := r.vectorFactory(namespace, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %w", ErrInvalidConfig, kind, namespace, err)
		}
		h.vector = store
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoFactory, kind)
	}

	h.setState(StateInitializing)

	initCtx, cancel := r.boundCtx(ctx)
	defer cancel()

	if err := h.backend().Initialize(initCtx); err != nil {
		h.setError(err)
		r.logger.Error("storage backend initialization failed",
			"kind", kind.String(), "namespace", namespace, "err", err)
		return nil, fmt.Errorf("%w: %s/%s: %w", ErrConnectionFailed, kind, namespace, err)
	}

	h.setState(StateReady)
	r.logger.Info("storage backend ready", "kind", kind.String(), "namespace", namespace)
	return h, nil
}

// CreateAll creates the graph and vector backends for a namespace
// concurrently. If either creation fails, the surviving backend is closed
// and evicted best-effort and a single ErrPartialCreation-wrapped error is
// returned: a partially-failed pair never leaves an orphaned Ready handle
// behind.
func (r *Registry) CreateAll(ctx context.Context, graphCfg, vectorCfg Config, namespace string) (*Handle, *Handle, error) {
	type outcome struct {
		h   *Handle
		err error
	}

	graphCh := make(chan outcome, 1)
	vectorCh := make(chan outcome, 1)

	go func() {
		h, err := r.Create(ctx, KindGraph, namespace, graphCfg)
		graphCh <- outcome{h: h, err: err}
	}()
	go func() {
		h, err := r.Create(ctx, KindVector, namespace, vectorCfg)
		vectorCh <- outcome{h: h, err: err}
	}()

	graph := <-graphCh
	vector := <-vectorCh

	if graph.err == nil && vector.err == nil {
		return graph.h, vector.h, nil
	}

	// Roll back whichever half succeeded; secondary errors are logged and
	// swallowed so the original failure is what the caller sees.
	if graph.err == nil {
		r.logger.Warn("rolling back graph backend after partial pair creation",
			"namespace", namespace, "err", vector.err)
		r.Close(ctx, KindGraph, namespace)
	}
	if vector.err == nil {
		r.logger.Warn("rolling back vector backend after partial pair creation",
			"namespace", namespace, "err", graph.err)
		r.Close(ctx, KindVector, namespace)
	}

	return nil, nil, fmt.Errorf("%w: namespace %s: %w",
		ErrPartialCreation, namespace, errors.Join(graph.err, vector.err))
}

// HealthCheckAll probes every registered backend and reports liveness per
// key. A probe never propagates a failure: backend errors, panics and
// handles not in the Ready state are all reported as false.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]bool {
	r.mu.Lock()
	snapshot := make(map[handleKey]*Handle, len(r.handles))
	for key, h := range r.handles {
		snapshot[key] = h
	}
	r.mu.Unlock()

	health := make(map[string]bool, len(snapshot))
	for key, h := range snapshot {
		health[key.String()] = r.probe(ctx, h)
	}
	return health
}

func (r *Registry) probe(ctx context.Context, h *Handle) (alive bool) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("storage health probe panicked",
				"kind", h.Kind().String(), "namespace", h.Namespace(), "panic", p)
			alive = false
		}
	}()

	if h.State() != StateReady {
		return false
	}

	probeCtx, cancel := r.boundCtx(ctx)
	defer cancel()

	if err := h.backend().Ping(probeCtx); err != nil {
		r.logger.Warn("storage health probe failed",
			"kind", h.Kind().String(), "namespace", h.Namespace(), "err", err)
		return false
	}
	return true
}

// Close tears down and removes the handle for (kind, namespace). Teardown
// errors are logged and swallowed; the handle always ends up Closed and
// evicted. Closing an absent key is a no-op.
func (r *Registry) Close(ctx context.Context, kind Kind, namespace string) {
	key := handleKey{kind: kind, namespace: namespace}

	r.mu.Lock()
	h, ok := r.handles[key]
	if ok {
		delete(r.handles, key)
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	r.teardown(ctx, key, h)
}

// CloseNamespace closes both backend kinds for a namespace.
func (r *Registry) CloseNamespace(ctx context.Context, namespace string) {
	r.Close(ctx, KindGraph, namespace)
	r.Close(ctx, KindVector, namespace)
}

// CloseAll tears down every registered handle. Like Close, it is
// best-effort: per-handle teardown failures never prevent the remaining
// handles from closing.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	snapshot := make(map[handleKey]*Handle, len(r.handles))
	for key, h := range r.handles {
		snapshot[key] = h
	}
	r.handles = make(map[handleKey]*Handle)
	r.mu.Unlock()

	for key, h := range snapshot {
		r.teardown(ctx, key, h)
	}
}

func (r *Registry) teardown(ctx context.Context, key handleKey, h *Handle) {
	closeCtx, cancel := r.boundCtx(ctx)
	defer cancel()

	if err := h.backend().Finalize(closeCtx); err != nil {
		r.logger.Error("error closing storage backend", "key", key.String(), "err", err)
	}
	h.setState(StateClosed)
	r.logger.Debug("storage backend closed", "key", key.String())
}

// Len returns the number of registered handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Handle returns the registered handle for (kind, namespace), or nil.
func (r *Registry) Handle(kind Kind, namespace string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[handleKey{kind: kind, namespace: namespace}]
}

func (r *Registry) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout > 0 {
		return context.WithTimeout(ctx, r.opTimeout)
	}
	return ctx, func() {}
}
