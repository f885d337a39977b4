// Package handler implements the HTTP API handlers
package handler

import (
	"net/http"

	"github.com/nwestbury/digitduel/internal/api/apierr"
	"github.com/nwestbury/digitduel/internal/api/response"
	"github.com/nwestbury/digitduel/internal/services/session"
)

// HealthHandler reports service and storage health
type HealthHandler struct {
	coord *session.Coordinator
}

// NewHealthHandler creates a health handler
func NewHealthHandler(coord *session.Coordinator) *HealthHandler {
	return &HealthHandler{coord: coord}
}

// Get returns 200 when the storage backend is reachable, 503 otherwise
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	if err := h.coord.Health(r.Context()); err != nil {
		apierr.WriteError(w, apierr.NewStorageUnavailableError())
		return
	}
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
