package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nextignition/network-api/internal/middleware"
	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/service"
	"github.com/nextignition/network-api/pkg/logger"
)

// ConnectionHandler handles connection graph endpoints.
type ConnectionHandler struct {
	service *service.ConnectionService
	logger  *logger.Logger
}

// NewConnectionHandler creates a new connection handler.
func NewConnectionHandler(svc *service.ConnectionService, log *logger.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		service: svc,
		logger:  log,
	}
}

// Send handles POST /api/v1/connections
func (h *ConnectionHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	var req model.SendConnectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	conn, err := h.service.SendRequest(ctx, identityID, req.TargetID, req.Message)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// List handles GET /api/v1/connections
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	views, err := h.service.Connections(ctx, identityID)
	if err != nil {
		h.logger.Error("failed to list connections", "identity_id", identityID, "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ListConnectionsResponse{
		Connections: views,
		Total:       len(views),
	})
}

// PendingReceived handles GET /api/v1/connections/pending
func (h *ConnectionHandler) PendingReceived(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	views, err := h.service.PendingReceived(ctx, identityID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ListConnectionsResponse{
		Connections: views,
		Total:       len(views),
	})
}

// PendingSent handles GET /api/v1/connections/sent
func (h *ConnectionHandler) PendingSent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	views, err := h.service.PendingSent(ctx, identityID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ListConnectionsResponse{
		Connections: views,
		Total:       len(views),
	})
}

// Accept handles POST /api/v1/connections/{id}/accept
func (h *ConnectionHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := h.service.Accept(ctx, identityID, id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// Reject handles POST /api/v1/connections/{id}/reject
func (h *ConnectionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Reject(ctx, identityID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Block handles POST /api/v1/connections/{id}/block
func (h *ConnectionHandler) Block(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Block(ctx, identityID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cancel handles DELETE /api/v1/connections/{id}
// Only the requester of a still-pending edge may cancel it.
func (h *ConnectionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Cancel(ctx, identityID, id); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status handles GET /api/v1/connections/status/{identityID}
func (h *ConnectionHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	counterpartID := chi.URLParam(r, "identityID")

	if err := middleware.ValidateID(counterpartID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status, err := h.service.Status(ctx, identityID, counterpartID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.RelationshipStatusResponse{Status: status})
}

// Stats handles GET /api/v1/stats
func (h *ConnectionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	stats, err := h.service.Stats(ctx, identityID)
	if err != nil {
		h.logger.Error("failed to compute stats", "identity_id", identityID, "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
