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

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stratadb/strata/core"
	"github.com/stratadb/strata/layer"
)

// Stack is the layered-graph surface the server exposes.
type Stack interface {
	QueryAll(ctx context.Context, query string, params core.QueryParams, onlyLayers []string) ([]*core.LayerResult, error)
	QueryAllMerged(ctx context.Context, query string, params core.QueryParams, onlyLayers []string) (string, error)
	QueryByPriority(ctx context.Context, query string, params core.QueryParams, stopAtFirst bool, minConfidence float64) (*core.LayerResult, error)
	InsertToLayer(ctx context.Context, layerName string, docs []*core.Document, skipExisting bool) (*core.InsertReport, error)
	Stats(layerName string) (map[string]layer.Info, error)
	Clear(layerName string) error
	Rebuild(ctx context.Context, layerName string) bool
	UpdateDescriptor(layerName string, upd layer.Update) error
	Descriptors() []layer.Descriptor
}

// Prober reports backend liveness for the health endpoint.
type Prober interface {
	HealthCheckAll(ctx context.Context) map[string]bool
}

// Server serves the layer stack over HTTP.
type Server struct {
	stack  Stack
	prober Prober
	cfg    Config
	logger *slog.Logger
	http   *http.Server
}

// NewServer wires handlers, middleware and routing for the given stack.
// prober may be nil, in which case the health endpoint reports only
// process liveness.
func NewServer(cfg Config, stack Stack, prober Prober) (*Server, error) {
	if stack == nil {
		return nil, errors.New("stack cannot be nil")
	}

	s := &Server{
		stack:  stack,
		prober: prober,
		cfg:    cfg,
		logger: slog.Default().With("component", "api"),
	}
	s.http = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Router builds the chi route tree. Exposed separately so tests can
// drive it through httptest without binding a socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(recoveryMiddleware(s.logger))
	if s.cfg.RateLimit > 0 {
		rl := newRateLimiter(s.cfg.RateLimit, s.cfg.RateBurst)
		r.Use(rateLimitMiddleware(rl, s.cfg.TrustProxy, s.logger))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", s.handleQuery)
		r.Post("/query/priority", s.handlePriorityQuery)
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)

		r.Route("/layers", func(r chi.Router) {
			r.Get("/", s.handleListLayers)
			r.Route("/{name}", func(r chi.Router) {
				r.Patch("/", s.handleUpdateLayer)
				r.Post("/documents", s.handleInsert)
				r.Get("/stats", s.handleLayerStats)
				r.Post("/clear", s.handleClear)
				r.Post("/rebuild", s.handleRebuild)
			})
		})
	})

	return r
}

// ListenAndServe blocks serving requests until Shutdown or failure.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.cfg.ListenAddr)
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
