package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stratadb/strata/core"
	"github.com/stratadb/strata/layer"
)

// errorBody is the JSON envelope for every error response.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", "err", err)
	}
}

// writeError writes a structured error envelope.
func writeError(w http.ResponseWriter, status int, code, message string, logger *slog.Logger) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	writeJSON(w, status, body, logger)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error, logger *slog.Logger) {
	switch {
	case errors.Is(err, core.ErrUnknownLayer):
		writeError(w, http.StatusNotFound, "unknown_layer", err.Error(), logger)
	case errors.Is(err, layer.ErrLayerDisabled):
		writeError(w, http.StatusConflict, "layer_disabled", err.Error(), logger)
	case errors.Is(err, layer.ErrNotInitialized):
		writeError(w, http.StatusServiceUnavailable, "not_initialized", err.Error(), logger)
	case errors.Is(err, core.ErrEmptyQuery),
		errors.Is(err, core.ErrInvalidMode),
		errors.Is(err, core.ErrInvalidDocument):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), logger)
	default:
		logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal server error", logger)
	}
}
