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

// Package client is a typed HTTP client for the strata API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stratadb/strata/api"
	"github.com/stratadb/strata/layer"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response decoded from the server's error
// envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Client talks to a strata server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client, e.g. to change the
// timeout or add a transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8089"
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query fans a query out across layers.
func (c *Client) Query(ctx context.Context, req api.QueryRequest) (*api.QueryResponse, error) {
	var resp api.QueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// QueryPriority queries layers sequentially by priority.
func (c *Client) QueryPriority(ctx context.Context, req api.PriorityQueryRequest) (*api.PriorityQueryResponse, error) {
	var resp api.PriorityQueryResponse
	if err := c.do(ctx, http.MethodPost, "/api/query/priority", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Insert ingests a batch of documents into one layer.
func (c *Client) Insert(ctx context.Context, layerName string, req api.InsertRequest) (*api.InsertResponse, error) {
	var resp api.InsertResponse
	path := fmt.Sprintf("/api/layers/%s/documents", url.PathEscape(layerName))
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Layers lists the configured layer descriptors.
func (c *Client) Layers(ctx context.Context) ([]layer.Descriptor, error) {
	var resp struct {
		Layers []layer.Descriptor `json:"layers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/layers/", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Layers, nil
}

// Stats returns counters for every layer.
func (c *Client) Stats(ctx context.Context) (map[string]api.LayerInfo, error) {
	var resp map[string]api.LayerInfo
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// LayerStats returns one layer's counters.
func (c *Client) LayerStats(ctx context.Context, layerName string) (*api.LayerInfo, error) {
	var resp api.LayerInfo
	path := fmt.Sprintf("/api/layers/%s/stats", url.PathEscape(layerName))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Clear resets a layer's counters. Stored data is untouched.
func (c *Client) Clear(ctx context.Context, layerName string) error {
	path := fmt.Sprintf("/api/layers/%s/clear", url.PathEscape(layerName))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// Rebuild finalizes and re-initializes one layer's storage.
func (c *Client) Rebuild(ctx context.Context, layerName string) error {
	path := fmt.Sprintf("/api/layers/%s/rebuild", url.PathEscape(layerName))
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// UpdateLayer patches a layer's descriptor.
func (c *Client) UpdateLayer(ctx context.Context, layerName string, req api.UpdateLayerRequest) error {
	path := fmt.Sprintf("/api/layers/%s", url.PathEscape(layerName))
	return c.do(ctx, http.MethodPatch, path, req, nil)
}

// Health reports server and backend liveness. A degraded server
// responds 503 with a valid body, which is returned rather than treated
// as a transport error.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/health", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET /api/health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, decodeError(resp)
	}
	var out api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &out, nil
}

// do executes one JSON round trip. A nil out discards the body.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError turns a non-2xx response into an *APIError, falling back
// to the raw body when the envelope doesn't parse.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Code != "" {
		return &APIError{Status: resp.StatusCode, Code: envelope.Error.Code, Message: envelope.Error.Message}
	}
	return &APIError{Status: resp.StatusCode, Code: "unknown", Message: strings.TrimSpace(string(raw))}
}
