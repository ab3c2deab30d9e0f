// Package oauth relays the Google Calendar OAuth code flow. The server
// never renders consent UI; it hands the client an auth URL, swaps the
// returned code for tokens and keeps refresh tokens server-side.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/pkg/logger"
	"github.com/nextignition/network-api/pkg/metrics"
)

// CalendarScope is the only scope the relay ever requests.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// ErrNotConfigured is returned when the relay is missing client
// credentials.
var ErrNotConfigured = errors.New("google oauth is not configured")

// ErrNoToken is returned on refresh when the identity never completed the
// consent flow.
var ErrNoToken = errors.New("no stored token for identity")

// GoogleRelay drives the authorization-code flow against Google and
// persists the resulting tokens per identity.
type GoogleRelay struct {
	config *oauth2.Config
	tokens store.TokenRepository
	logger *logger.Logger
}

// NewGoogleRelay creates a relay. Empty client credentials leave the relay
// constructed but every call returns ErrNotConfigured.
func NewGoogleRelay(clientID, clientSecret, redirectURL string, tokens store.TokenRepository, log *logger.Logger) *GoogleRelay {
	var cfg *oauth2.Config
	if clientID != "" && clientSecret != "" {
		cfg = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{CalendarScope},
			Endpoint:     google.Endpoint,
		}
	}
	return &GoogleRelay{config: cfg, tokens: tokens, logger: log}
}

// Initiate returns the consent URL the client should open. Google rejects
// the flow unless redirectURI exactly matches a registered value, so it is
// passed through verbatim.
func (g *GoogleRelay) Initiate(identityID, redirectURI string) (string, error) {
	if g.config == nil {
		return "", ErrNotConfigured
	}
	opts := []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	}
	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}
	return g.config.AuthCodeURL(identityID, opts...), nil
}

// Callback exchanges the authorization code and upserts the token row for
// the identity. redirectURI must match the one used at initiate.
func (g *GoogleRelay) Callback(ctx context.Context, identityID, code, redirectURI string) (*model.CalendarToken, error) {
	if g.config == nil {
		return nil, ErrNotConfigured
	}
	if code == "" {
		return nil, errors.New("missing authorization code")
	}

	var opts []oauth2.AuthCodeOption
	if redirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	}
	token, err := g.config.Exchange(ctx, code, opts...)
	if err != nil {
		metrics.OAuthExchangesTotal.WithLabelValues("callback", "error").Inc()
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	row := &model.CalendarToken{
		IdentityID:   identityID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := g.tokens.Upsert(ctx, row); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	metrics.OAuthExchangesTotal.WithLabelValues("callback", "ok").Inc()
	g.logger.Info("google oauth tokens stored", "identity_id", identityID)
	return row, nil
}

// Refresh swaps the stored refresh token for a fresh access token, updates
// the row and returns the new access token with its expiry.
func (g *GoogleRelay) Refresh(ctx context.Context, identityID string) (*model.CalendarToken, error) {
	if g.config == nil {
		return nil, ErrNotConfigured
	}

	stored, err := g.tokens.Get(ctx, identityID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrNoToken
		}
		return nil, err
	}
	if stored.RefreshToken == "" {
		return nil, ErrNoToken
	}

	src := g.config.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken})
	token, err := src.Token()
	if err != nil {
		metrics.OAuthExchangesTotal.WithLabelValues("refresh", "error").Inc()
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	stored.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		stored.RefreshToken = token.RefreshToken
	}
	stored.ExpiresAt = token.Expiry
	stored.UpdatedAt = time.Now().UTC()

	if err := g.tokens.Upsert(ctx, stored); err != nil {
		return nil, fmt.Errorf("failed to store refreshed token: %w", err)
	}

	metrics.OAuthExchangesTotal.WithLabelValues("refresh", "ok").Inc()
	return stored, nil
}
