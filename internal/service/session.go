package service

import (
	"context"
	"errors"
	"sync"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/pkg/logger"
)

// AuthProvider is the external authentication interface the core consumes.
// It issues sessions and signals session changes; the core only ever reads
// the identity id off the result.
type AuthProvider interface {
	CurrentSession(ctx context.Context) (*model.Session, error)
	OnSessionChange(handler func(*model.Session)) (func(), error)
}

// SessionStore owns the session/identity/profile triple for one client
// attachment. Start loads the current session and subscribes to
// session-change events; Close tears the subscription down. A changed
// session refreshes the cached triple; a nil session clears it.
type SessionStore struct {
	auth     AuthProvider
	profiles store.ProfileRepository
	logger   *logger.Logger

	mu      sync.RWMutex
	session *model.Session
	profile *model.Identity
	unsub   func()
}

// NewSessionStore creates an unstarted session store.
func NewSessionStore(auth AuthProvider, profiles store.ProfileRepository, log *logger.Logger) *SessionStore {
	return &SessionStore{
		auth:     auth,
		profiles: profiles,
		logger:   log,
	}
}

// Start loads the current session and begins tracking changes.
func (s *SessionStore) Start(ctx context.Context) error {
	session, err := s.auth.CurrentSession(ctx)
	if err != nil && !errors.Is(err, model.ErrNoSession) {
		return err
	}
	s.apply(ctx, session)

	unsub, err := s.auth.OnSessionChange(func(session *model.Session) {
		s.apply(context.Background(), session)
	})
	if err != nil {
		return err
	}
	s.unsub = unsub
	return nil
}

// Close tears down the session-change subscription.
func (s *SessionStore) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
}

// Session returns the current session, or ErrNoSession when signed out.
func (s *SessionStore) Session() (*model.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil, model.ErrNoSession
	}
	clone := *s.session
	return &clone, nil
}

// Profile returns the cached profile for the current session.
func (s *SessionStore) Profile() (*model.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil, model.ErrNoSession
	}
	clone := *s.profile
	return &clone, nil
}

// IdentityID returns the signed-in identity id, or empty when signed out.
func (s *SessionStore) IdentityID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.IdentityID
}

func (s *SessionStore) apply(ctx context.Context, session *model.Session) {
	if session == nil {
		s.mu.Lock()
		s.session = nil
		s.profile = nil
		s.mu.Unlock()
		return
	}

	profile, err := s.profiles.Get(ctx, session.IdentityID)
	if err != nil {
		s.logger.Error("failed to load session profile",
			"identity_id", session.IdentityID, "error", err)
		profile = nil
	}

	s.mu.Lock()
	s.session = session
	s.profile = profile
	s.mu.Unlock()
}
