// Package memory provides an in-memory implementation of the store
// interfaces, used by tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/store"
)

// Store holds every aggregate in process memory guarded by a single lock.
type Store struct {
	mu sync.RWMutex

	profiles      map[string]*model.Identity
	connections   map[string]*model.Connection
	conversations map[string]*model.Conversation
	members       map[string][]*model.ConversationMember // by conversation id
	messages      map[string][]*model.ChatMessage        // by conversation id
	notifications map[string]*model.Notification
	tokens        map[string]*model.CalendarToken // by identity id
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		profiles:      make(map[string]*model.Identity),
		connections:   make(map[string]*model.Connection),
		conversations: make(map[string]*model.Conversation),
		members:       make(map[string][]*model.ConversationMember),
		messages:      make(map[string][]*model.ChatMessage),
		notifications: make(map[string]*model.Notification),
		tokens:        make(map[string]*model.CalendarToken),
	}
}

// Profiles returns the profile repository view of the store.
func (s *Store) Profiles() store.ProfileRepository { return &profileRepo{s} }

// Connections returns the connection repository view of the store.
func (s *Store) Connections() store.ConnectionRepository { return &connectionRepo{s} }

// Conversations returns the conversation repository view of the store.
func (s *Store) Conversations() store.ConversationRepository { return &conversationRepo{s} }

// Notifications returns the notification repository view of the store.
func (s *Store) Notifications() store.NotificationRepository { return &notificationRepo{s} }

// Tokens returns the OAuth token repository view of the store.
func (s *Store) Tokens() store.TokenRepository { return &tokenRepo{s} }

// --- profiles ---

type profileRepo struct{ s *Store }

func (r *profileRepo) Get(ctx context.Context, id string) (*model.Identity, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	identity, ok := r.s.profiles[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	clone := *identity
	return &clone, nil
}

func (r *profileRepo) Create(ctx context.Context, identity *model.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	clone := *identity
	r.s.profiles[identity.ID] = &clone
	return nil
}

func (r *profileRepo) Update(ctx context.Context, identity *model.Identity) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.profiles[identity.ID]; !ok {
		return model.ErrNotFound
	}
	clone := *identity
	r.s.profiles[identity.ID] = &clone
	return nil
}

func (r *profileRepo) List(ctx context.Context, filter store.ListProfilesFilter) ([]model.Identity, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []model.Identity
	for _, p := range r.s.profiles {
		if filter.Role != "" && p.Role != filter.Role {
			continue
		}
		if filter.ExcludeID != "" && p.ID == filter.ExcludeID {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool {
		return strings.ToLower(matched[i].Name) < strings.ToLower(matched[j].Name)
	})

	total := len(matched)
	start := filter.Offset
	if start > total {
		start = total
	}
	end := total
	if filter.Limit > 0 && start+filter.Limit < total {
		end = start + filter.Limit
	}
	return matched[start:end], total, nil
}

// --- tokens ---

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Upsert(ctx context.Context, token *model.CalendarToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	clone := *token
	clone.UpdatedAt = time.Now().UTC()
	// Re-consent responses often omit the refresh token; keep the one we
	// already hold.
	if clone.RefreshToken == "" {
		if prev, ok := r.s.tokens[token.IdentityID]; ok {
			clone.RefreshToken = prev.RefreshToken
		}
	}
	r.s.tokens[token.IdentityID] = &clone
	return nil
}

func (r *tokenRepo) Get(ctx context.Context, identityID string) (*model.CalendarToken, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	token, ok := r.s.tokens[identityID]
	if !ok {
		return nil, model.ErrNotFound
	}
	clone := *token
	return &clone, nil
}
