package oauth

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextignition/network-api/internal/store/memory"
	"github.com/nextignition/network-api/pkg/logger"
)

func TestInitiate_BuildsConsentURL(t *testing.T) {
	relay := NewGoogleRelay("client-id", "client-secret", "http://localhost:8080/oauth/google/callback",
		memory.New().Tokens(), logger.NewNop())

	raw, err := relay.Initiate("identity-1", "https://app.example.com/oauth/done")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "identity-1", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "https://app.example.com/oauth/done", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "auth/calendar")
}

func TestRelay_NotConfigured(t *testing.T) {
	relay := NewGoogleRelay("", "", "", memory.New().Tokens(), logger.NewNop())

	_, err := relay.Initiate("identity-1", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = relay.Callback(context.Background(), "identity-1", "code", "")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = relay.Refresh(context.Background(), "identity-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRefresh_NoStoredToken(t *testing.T) {
	relay := NewGoogleRelay("client-id", "client-secret", "http://localhost:8080/oauth/google/callback",
		memory.New().Tokens(), logger.NewNop())

	_, err := relay.Refresh(context.Background(), "identity-1")
	assert.ErrorIs(t, err, ErrNoToken)
}
