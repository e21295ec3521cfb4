// internal/handlers/dashboard.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/pos-engine/internal/core/ports"
)

// DashboardHandler serves the store overview.
type DashboardHandler struct {
	responder
	dashboard ports.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard ports.DashboardService, language string, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		responder: newResponder(logger.With(slog.String("handler", "dashboard")), language),
		dashboard: dashboard,
	}
}

// GetDashboard handles GET /api/v1/dashboard. ?refresh=true skips the cache.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	load := h.dashboard.Summary
	if r.URL.Query().Get("refresh") == "true" {
		load = h.dashboard.Refresh
	}

	dash, err := load(r.Context())
	if err != nil {
		h.respondDomainError(w, r, "load dashboard", err)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	h.respondJSON(w, http.StatusOK, dash)
}
