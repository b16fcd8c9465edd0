package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/odyssey/internal/common"
)

// APIHandler serves the small system endpoints
type APIHandler struct {
	logger arbor.ILogger
}

// NewAPIHandler creates the system endpoint handler
func NewAPIHandler(logger arbor.ILogger) *APIHandler {
	return &APIHandler{logger: logger}
}

// HealthHandler handles GET /health
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": common.GetVersion(),
	})
}

// VersionHandler handles GET /api/version
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
	})
}

// NotFoundHandler answers unmatched API routes with a JSON 404
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteError(w, http.StatusNotFound, "not found")
}
