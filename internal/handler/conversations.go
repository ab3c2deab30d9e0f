// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nextignition/network-api/internal/middleware"
	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/service"
	"github.com/nextignition/network-api/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	resp, err := h.service.List(ctx, identityID)
	if err != nil {
		h.logger.Error("failed to list conversations", "identity_id", identityID, "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateGroup handles POST /api/v1/conversations
// Direct conversations are never created here; they materialize when a
// connection is accepted.
func (h *ConversationHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	var req model.CreateGroupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := middleware.ValidateGroupName(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.CreateGroup(ctx, identityID, req.Title, req.MemberIDs)
	if err != nil {
		h.logger.Error("failed to create group", "identity_id", identityID, "error", err)
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

// Messages handles GET /api/v1/conversations/{id}/messages
// Supports ?limit=50&before=RFC3339 for paging backwards.
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	var before time.Time
	if b := r.URL.Query().Get("before"); b != "" {
		parsed, err := time.Parse(time.RFC3339, b)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid before timestamp")
			return
		}
		before = parsed
	}

	resp, err := h.service.Messages(ctx, identityID, conversationID, limit, before)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SendMessage handles POST /api/v1/conversations/{id}/messages
// The REST path for sending; the websocket path is preferred for live
// clients.
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendChatMessageRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	msg, err := h.service.SendMessage(ctx, identityID, conversationID, req.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// MarkRead handles POST /api/v1/conversations/{id}/read
func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.MarkRead(ctx, identityID, conversationID); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
