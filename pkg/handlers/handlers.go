// Package handlers implements the admin HTTP surface. Each resource lives in
// its own file; this file holds the shared plumbing.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/novachain/admin-settlement/pkg/engine"
	"github.com/novachain/admin-settlement/pkg/storage"
	"github.com/rs/zerolog"
)

// ApiHandler holds the application's dependencies for the HTTP layer.
type ApiHandler struct {
	Engine *engine.Engine
	Logger zerolog.Logger
}

// NewApiHandler creates a new ApiHandler backed by the workflow engine.
func NewApiHandler(eng *engine.Engine, logger zerolog.Logger) *ApiHandler {
	return &ApiHandler{Engine: eng, Logger: logger}
}

// writeJSON encodes v with the given status code.
func (h *ApiHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error().Err(err).Msg("failed to write response")
	}
}

// writeError maps a domain error to an HTTP status and the standard error
// body.
func (h *ApiHandler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, storage.ErrNotFound):
		status, message = http.StatusNotFound, "Not found"
	case errors.Is(err, storage.ErrUnauthorized):
		status, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, storage.ErrInvalidAmount):
		status, message = http.StatusBadRequest, "Invalid amount"
	case errors.Is(err, storage.ErrInsufficientBalance):
		status, message = http.StatusUnprocessableEntity, "Insufficient balance"
	case errors.Is(err, storage.ErrInvalidStateTransition):
		status, message = http.StatusConflict, "Invalid state transition"
	case errors.Is(err, storage.ErrAlreadySettled):
		status, message = http.StatusConflict, "Trade already settled"
	case errors.Is(err, storage.ErrConcurrentModification):
		status, message = http.StatusConflict, "Entity was modified concurrently, retry"
	default:
		h.Logger.Error().Err(err).Msg("request failed")
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// decodeBody decodes the JSON request body into v, responding 400 on failure.
func (h *ApiHandler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return false
	}
	return true
}
