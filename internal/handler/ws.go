package handler

import (
	"net/http"

	"github.com/nextignition/network-api/internal/middleware"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/internal/ws"
	"github.com/nextignition/network-api/pkg/logger"
)

// WSHandler upgrades chat clients onto the hub.
type WSHandler struct {
	hub      *ws.Hub
	profiles store.ProfileRepository
	logger   *logger.Logger
}

// NewWSHandler creates a new websocket handler.
func NewWSHandler(hub *ws.Hub, profiles store.ProfileRepository, log *logger.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		profiles: profiles,
		logger:   log,
	}
}

// Serve handles GET /api/v1/ws
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	name := ""
	if profile, err := h.profiles.Get(ctx, identityID); err == nil {
		name = profile.Name
	}

	if err := ws.ServeWS(h.hub, w, r, identityID, name); err != nil {
		h.logger.Error("websocket upgrade failed",
			"identity_id", identityID, "error", err)
	}
}
