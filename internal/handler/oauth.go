package handler

import (
	"encoding/json"
	"net/http"

	"github.com/nextignition/network-api/internal/middleware"
	"github.com/nextignition/network-api/internal/oauth"
	"github.com/nextignition/network-api/pkg/logger"
)

// OAuthHandler exposes the Google Calendar OAuth relay. Every failure is a
// 400 with {"success":false,"error":...} so clients branch on one shape.
type OAuthHandler struct {
	relay  *oauth.GoogleRelay
	logger *logger.Logger
}

// NewOAuthHandler creates a new OAuth handler.
func NewOAuthHandler(relay *oauth.GoogleRelay, log *logger.Logger) *OAuthHandler {
	return &OAuthHandler{
		relay:  relay,
		logger: log,
	}
}

func writeOAuthError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

type oauthInitiateRequest struct {
	RedirectURI string `json:"redirect_uri"`
}

type oauthCallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri"`
}

// Initiate handles POST /oauth/google/initiate
func (h *OAuthHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	identityID := middleware.GetIdentityID(r.Context())

	var req oauthInitiateRequest
	if r.Body != nil {
		// The body is optional; the configured redirect URL is the fallback.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	url, err := h.relay.Initiate(identityID, req.RedirectURI)
	if err != nil {
		h.logger.Error("oauth initiate failed", "identity_id", identityID, "error", err)
		writeOAuthError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authUrl": url,
	})
}

// Callback handles POST /oauth/google/callback
// The client forwards the code it received on its redirect page.
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	var req oauthCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeOAuthError(w, "invalid request body")
		return
	}

	token, err := h.relay.Callback(ctx, identityID, req.Code, req.RedirectURI)
	if err != nil {
		h.logger.Error("oauth callback failed", "identity_id", identityID, "error", err)
		writeOAuthError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"expiresAt": token.ExpiresAt,
	})
}

// Refresh handles POST /oauth/google/refresh
func (h *OAuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	token, err := h.relay.Refresh(ctx, identityID)
	if err != nil {
		h.logger.Error("oauth refresh failed", "identity_id", identityID, "error", err)
		writeOAuthError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"access_token": token.AccessToken,
		"expires_at":   token.ExpiresAt,
	})
}
