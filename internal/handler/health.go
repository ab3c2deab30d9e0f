package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/nextignition/network-api/internal/events"
	"github.com/nextignition/network-api/internal/store/postgres"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	natsClient *events.Client
	db         *postgres.Store
}

// NewHealthHandler creates a new health handler. Either dependency may be
// nil when the deployment runs without it.
func NewHealthHandler(natsClient *events.Client, db *postgres.Store) *HealthHandler {
	return &HealthHandler{
		natsClient: natsClient,
		db:         db,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.natsClient != nil && !h.natsClient.IsConnected() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"reason": "NATS not connected",
		})
		return
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"reason": "database unreachable",
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}
