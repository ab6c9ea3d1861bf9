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

// Package strata assembles the layered knowledge-graph retrieval
// service: a storage registry with one graph/vector backend pair per
// layer namespace, one retrieval engine per layer, and the prioritized
// layer stack on top.
package strata

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/stratadb/strata/ai"
	"github.com/stratadb/strata/ai/mock"
	"github.com/stratadb/strata/ai/openai"
	"github.com/stratadb/strata/engine"
	"github.com/stratadb/strata/layer"
	"github.com/stratadb/strata/storage"
	"github.com/stratadb/strata/storage/badger"
	"github.com/stratadb/strata/storage/neo4j"
)

// Service owns the full retrieval system. Construction via Open either
// succeeds completely or rolls back everything it brought up.
type Service struct {
	registry *storage.Registry
	provider ai.Provider
	stack    *layer.Stack
	logger   *slog.Logger
}

// Option overrides a Service dependency during Open.
type Option func(*serviceOptions)

type serviceOptions struct {
	graphFactory  storage.GraphFactory
	vectorFactory storage.VectorFactory
	provider      ai.Provider
}

// WithGraphFactory replaces the default Neo4j graph backend factory.
func WithGraphFactory(f storage.GraphFactory) Option {
	return func(o *serviceOptions) { o.graphFactory = f }
}

// WithVectorFactory replaces the default Badger vector backend factory.
func WithVectorFactory(f storage.VectorFactory) Option {
	return func(o *serviceOptions) { o.vectorFactory = f }
}

// WithProvider replaces the AI provider chosen by the config.
func WithProvider(p ai.Provider) Option {
	return func(o *serviceOptions) { o.provider = p }
}

// Open builds and initializes the whole service from a config. On any
// failure every component brought up so far is torn down before the
// error is returned.
func Open(ctx context.Context, cfg *Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{
		graphFactory:  neo4j.New,
		vectorFactory: badger.New,
	}
	for _, opt := range opts {
		opt(options)
	}

	logger := slog.Default().With("component", "strata")

	provider := options.provider
	if provider == nil {
		if cfg.Offline {
			provider = mock.NewMockProvider()
		} else {
			var err error
			provider, err = openai.NewProvider(cfg.AI)
			if err != nil {
				return nil, err
			}
		}
	}

	registryOpts := []storage.RegistryOption{
		storage.WithGraphFactory(options.graphFactory),
		storage.WithVectorFactory(options.vectorFactory),
	}
	if cfg.OpTimeout > 0 {
		registryOpts = append(registryOpts, storage.WithOpTimeout(cfg.OpTimeout))
	}
	registry, err := storage.NewRegistry(registryOpts...)
	if err != nil {
		provider.Close()
		return nil, err
	}

	factory := func(d layer.Descriptor) (layer.Engine, error) {
		vecCfg := cfg.Vector
		if vecCfg.Path != "" {
			// One directory per namespace; the store locks its directory.
			vecCfg.Path = filepath.Join(cfg.Vector.Path, d.Namespace)
		}
		return engine.New(d.Namespace, registry, provider, cfg.Graph, vecCfg)
	}

	stackOpts := []layer.Option{}
	if cfg.FanoutWidth > 0 {
		stackOpts = append(stackOpts, layer.WithFanoutWidth(cfg.FanoutWidth))
	}
	stack, err := layer.New(cfg.Layers, factory, stackOpts...)
	if err != nil {
		provider.Close()
		return nil, err
	}

	if err := stack.Initialize(ctx); err != nil {
		// Partial bring-up: close whatever layers and backends made it.
		stack.Finalize(ctx)
		registry.CloseAll(ctx)
		provider.Close()
		return nil, err
	}

	logger.Info("service ready", "layers", len(stack.Descriptors()))
	return &Service{
		registry: registry,
		provider: provider,
		stack:    stack,
		logger:   logger,
	}, nil
}

// Stack returns the layer orchestrator.
func (s *Service) Stack() *layer.Stack { return s.stack }

// Registry returns the storage registry, e.g. for health probes.
func (s *Service) Registry() *storage.Registry { return s.registry }

// Close tears the service down best-effort in reverse bring-up order.
func (s *Service) Close(ctx context.Context) error {
	s.stack.Finalize(ctx)
	s.registry.CloseAll(ctx)
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
		return err
	}
	return nil
}
