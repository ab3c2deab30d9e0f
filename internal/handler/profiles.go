package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nextignition/network-api/internal/middleware"
	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/permission"
	"github.com/nextignition/network-api/internal/service"
	"github.com/nextignition/network-api/pkg/logger"
)

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	service *service.ProfileService
	perms   permission.Resolver
	logger  *logger.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(svc *service.ProfileService, perms permission.Resolver, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: svc,
		perms:   perms,
		logger:  log,
	}
}

// Me handles GET /api/v1/profiles/me
func (h *ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	profile, err := h.service.Get(ctx, identityID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /api/v1/profiles/me
func (h *ProfileHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	var req model.UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	profile, err := h.service.Update(ctx, identityID, &req)
	if err != nil {
		h.logger.Error("failed to update profile", "identity_id", identityID, "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Permissions handles GET /api/v1/profiles/me/permissions
func (h *ProfileHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	profile, err := h.service.Get(ctx, identityID)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.perms.For(profile))
}

// Get handles GET /api/v1/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if err := middleware.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.service.Get(ctx, id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// List handles GET /api/v1/profiles
// Supports ?role=founder&limit=20&offset=0 for browsing the network.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	limit := 20
	offset := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	role := model.Role(r.URL.Query().Get("role"))
	if role != "" && !role.Valid() {
		writeError(w, http.StatusBadRequest, "unknown role")
		return
	}

	resp, err := h.service.Browse(ctx, identityID, role, limit, offset)
	if err != nil {
		h.logger.Error("failed to browse profiles", "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
