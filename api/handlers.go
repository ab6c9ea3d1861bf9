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
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stratadb/strata/core"
	"github.com/stratadb/strata/layer"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query      string   `json:"query"`
	Mode       string   `json:"mode,omitempty"`
	TopK       int      `json:"top_k,omitempty"`
	OnlyLayers []string `json:"only_layers,omitempty"`
	Merge      bool     `json:"merge,omitempty"`
}

// LayerResult mirrors core.LayerResult on the wire.
type LayerResult struct {
	Layer       string   `json:"layer"`
	Text        string   `json:"text"`
	Priority    int      `json:"priority"`
	Namespace   string   `json:"namespace"`
	Description string   `json:"description,omitempty"`
	Score       float64  `json:"score"`
	Sources     []string `json:"sources,omitempty"`
}

// QueryResponse is the body of a successful POST /api/query.
type QueryResponse struct {
	Results []LayerResult `json:"results,omitempty"`
	Merged  string        `json:"merged,omitempty"`
}

func toWireResult(res *core.LayerResult) LayerResult {
	return LayerResult{
		Layer:       res.Layer,
		Text:        res.Text,
		Priority:    res.Priority,
		Namespace:   res.Namespace,
		Description: res.Description,
		Score:       res.Score,
		Sources:     res.Sources,
	}
}

// handleQuery serves POST /api/query: fan-out across layers, merged or
// listed per layer.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), s.logger)
		return
	}

	params := core.QueryParams{Mode: core.QueryMode(req.Mode), TopK: req.TopK}
	if req.Merge {
		merged, err := s.stack.QueryAllMerged(r.Context(), req.Query, params, req.OnlyLayers)
		if err != nil {
			writeDomainError(w, err, s.logger)
			return
		}
		writeJSON(w, http.StatusOK, QueryResponse{Merged: merged}, s.logger)
		return
	}

	results, err := s.stack.QueryAll(r.Context(), req.Query, params, req.OnlyLayers)
	if err != nil {
		writeDomainError(w, err, s.logger)
		return
	}
	out := make([]LayerResult, len(results))
	for i, res := range results {
		out[i] = toWireResult(res)
	}
	writeJSON(w, http.StatusOK, QueryResponse{Results: out}, s.logger)
}

// PriorityQueryRequest is the body of POST /api/query/priority.
type PriorityQueryRequest struct {
	Query         string  `json:"query"`
	Mode          string  `json:"mode,omitempty"`
	TopK          int     `json:"top_k,omitempty"`
	StopAtFirst   bool    `json:"stop_at_first,omitempty"`
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

// PriorityQueryResponse is the body of a successful priority query.
// Result is null when no layer produced a qualifying answer.
type PriorityQueryResponse struct {
	Result *LayerResult `json:"result"`
}

// handlePriorityQuery serves POST /api/query/priority.
func (s *Server) handlePriorityQuery(w http.ResponseWriter, r *http.Request) {
	var req PriorityQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), s.logger)
		return
	}

	params := core.QueryParams{Mode: core.QueryMode(req.Mode), TopK: req.TopK}
	res, err := s.stack.QueryByPriority(r.Context(), req.Query, params, req.StopAtFirst, req.MinConfidence)
	if err != nil {
		writeDomainError(w, err, s.logger)
		return
	}

	var out PriorityQueryResponse
	if res != nil {
		wire := toWireResult(res)
		out.Result = &wire
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

// Document mirrors core.Document on the wire.
type Document struct {
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// InsertRequest is the body of POST /api/layers/{name}/documents.
type InsertRequest struct {
	Documents    []Document `json:"documents"`
	SkipExisting bool       `json:"skip_existing,omitempty"`
}

// InsertResponse reports the aggregated batch outcome.
type InsertResponse struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Errors    []InsertError `json:"errors,omitempty"`
}

// InsertError identifies one failed document by batch index.
type InsertError struct {
	DocIndex int    `json:"doc_index"`
	Error    string `json:"error"`
}

// handleInsert serves POST /api/layers/{name}/documents.
func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), s.logger)
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "documents cannot be empty", s.logger)
		return
	}

	docs := make([]*core.Document, len(req.Documents))
	for i, d := range req.Documents {
		docs[i] = &core.Document{ID: d.ID, Content: d.Content, Metadata: d.Metadata}
	}

	report, err := s.stack.InsertToLayer(r.Context(), name, docs, req.SkipExisting)
	if err != nil {
		writeDomainError(w, err, s.logger)
		return
	}

	out := InsertResponse{
		Total:     report.Total,
		Succeeded: report.Succeeded,
		Failed:    report.Failed,
		Skipped:   report.Skipped,
	}
	for _, ie := range report.Errors {
		out.Errors = append(out.Errors, InsertError{DocIndex: ie.DocIndex, Error: ie.Err})
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

// LayerInfo combines descriptor fields with live counters on the wire.
type LayerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Priority    int    `json:"priority"`
	Namespace   string `json:"namespace"`
	Enabled     bool   `json:"enabled"`
	Documents   int    `json:"documents"`
	Entities    int    `json:"entities"`
	Queries     int    `json:"queries"`
	Status      string `json:"status"`
}

func toWireInfo(name string, info layer.Info) LayerInfo {
	return LayerInfo{
		Name:        name,
		Description: info.Descriptor.Description,
		Priority:    info.Descriptor.Priority,
		Namespace:   info.Descriptor.Namespace,
		Enabled:     info.Descriptor.Enabled,
		Documents:   info.Stats.Documents,
		Entities:    info.Stats.Entities,
		Queries:     info.Stats.Queries,
		Status:      info.Stats.Status,
	}
}

// handleListLayers serves GET /api/layers.
func (s *Server) handleListLayers(w http.ResponseWriter, r *http.Request) {
	descriptors := s.stack.Descriptors()
	writeJSON(w, http.StatusOK, map[string]any{"layers": descriptors}, s.logger)
}

// handleStats serves GET /api/stats with every layer's counters.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	all, err := s.stack.Stats("")
	if err != nil {
		writeDomainError(w, err, s.logger)
		return
	}
	out := make(map[string]LayerInfo, len(all))
	for name, info := range all {
		out[name] = toWireInfo(name, info)
	}
	writeJSON(w, http.StatusOK, out, s.logger)
}

// handleLayerStats serves GET /api/layers/{name}/stats.
func (s *Server) handleLayerStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	stats, err := s.stack.Stats(name)
	if err != nil {
		writeDomainError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, toWireInfo(name, stats[name]), s.logger)
}

// handleClear serves POST /api/layers/{name}/clear: a counter reset,
// stored data is untouched.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.stack.Clear(name); err != nil {
		writeDomainError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"}, s.logger)
}

// handleRebuild serves POST /api/layers/{name}/rebuild.
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !s.stack.Rebuild(r.Context(), name) {
		writeError(w, http.StatusConflict, "rebuild_failed", "layer rebuild failed", s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"}, s.logger)
}

// UpdateLayerRequest is the body of PATCH /api/layers/{name}. Absent
// fields are left unchanged.
type UpdateLayerRequest struct {
	Description *string `json:"description,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Enabled     *bool   `json:"enabled,omitempty"`
}

// handleUpdateLayer serves PATCH /api/layers/{name}.
func (s *Server) handleUpdateLayer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req UpdateLayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error(), s.logger)
		return
	}

	upd := layer.Update{Description: req.Description, Priority: req.Priority, Enabled: req.Enabled}
	if err := s.stack.UpdateDescriptor(name, upd); err != nil {
		writeDomainError(w, err, s.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"}, s.logger)
}

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status   string          `json:"status"`
	Backends map[string]bool `json:"backends,omitempty"`
}

// handleHealth serves GET /api/health. Status is "ok" when every
// registered backend probe passes, "degraded" otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if s.prober != nil {
		resp.Backends = s.prober.HealthCheckAll(r.Context())
		for _, alive := range resp.Backends {
			if !alive {
				resp.Status = "degraded"
				break
			}
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp, s.logger)
}
