package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/pkg/logger"
)

// fakeAuth is a scriptable auth provider.
type fakeAuth struct {
	mu      sync.Mutex
	session *model.Session
	handler func(*model.Session)
}

func (a *fakeAuth) CurrentSession(ctx context.Context) (*model.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil, model.ErrNoSession
	}
	clone := *a.session
	return &clone, nil
}

func (a *fakeAuth) OnSessionChange(handler func(*model.Session)) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handler = handler
	return func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.handler = nil
	}, nil
}

func (a *fakeAuth) change(session *model.Session) {
	a.mu.Lock()
	handler := a.handler
	a.session = session
	a.mu.Unlock()
	if handler != nil {
		handler(session)
	}
}

func TestSessionStore_SignedOutByDefault(t *testing.T) {
	env := newTestEnv(t)
	auth := &fakeAuth{}

	sessions := NewSessionStore(auth, env.store.Profiles(), logger.NewNop())
	require.NoError(t, sessions.Start(context.Background()))
	defer sessions.Close()

	_, err := sessions.Session()
	assert.ErrorIs(t, err, model.ErrNoSession)
	_, err = sessions.Profile()
	assert.ErrorIs(t, err, model.ErrNoSession)
	assert.Empty(t, sessions.IdentityID())
}

func TestSessionStore_LoadsProfileOnStart(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPro)
	auth := &fakeAuth{session: &model.Session{
		IdentityID: alice.ID,
		ExpiresAt:  time.Now().Add(time.Hour),
	}}

	sessions := NewSessionStore(auth, env.store.Profiles(), logger.NewNop())
	require.NoError(t, sessions.Start(context.Background()))
	defer sessions.Close()

	assert.Equal(t, alice.ID, sessions.IdentityID())

	profile, err := sessions.Profile()
	require.NoError(t, err)
	assert.Equal(t, "alice", profile.Name)
}

func TestSessionStore_TracksSessionChanges(t *testing.T) {
	env := newTestEnv(t)
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPro)
	bob := env.seedProfile(t, "bob", model.RoleInvestor, model.TierFree)
	auth := &fakeAuth{session: &model.Session{IdentityID: alice.ID}}

	sessions := NewSessionStore(auth, env.store.Profiles(), logger.NewNop())
	require.NoError(t, sessions.Start(context.Background()))
	defer sessions.Close()

	require.Equal(t, alice.ID, sessions.IdentityID())

	// Switch accounts.
	auth.change(&model.Session{IdentityID: bob.ID})
	assert.Equal(t, bob.ID, sessions.IdentityID())
	profile, err := sessions.Profile()
	require.NoError(t, err)
	assert.Equal(t, "bob", profile.Name)

	// Sign out clears the triple.
	auth.change(nil)
	assert.Empty(t, sessions.IdentityID())
	_, err = sessions.Profile()
	assert.ErrorIs(t, err, model.ErrNoSession)
}
