package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/permission"
	"github.com/nextignition/network-api/internal/store/memory"
	"github.com/nextignition/network-api/pkg/logger"
)

// fakePublisher records everything published; tests assert against it
// instead of a running NATS server.
type fakePublisher struct {
	mu               sync.Mutex
	connectionEvents []model.ConnectionEvent
	notifications    []model.Notification
	typing           []model.TypingEvent
	presence         []model.PresenceEvent
}

func (p *fakePublisher) PublishConnectionEvent(ctx context.Context, ev *model.ConnectionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connectionEvents = append(p.connectionEvents, *ev)
	return nil
}

func (p *fakePublisher) PublishNotificationCreated(ctx context.Context, n *model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, *n)
	return nil
}

func (p *fakePublisher) PublishTyping(ev *model.TypingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.typing = append(p.typing, *ev)
	return nil
}

func (p *fakePublisher) PublishPresence(ev *model.PresenceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.presence = append(p.presence, *ev)
	return nil
}

func (p *fakePublisher) typingEvents() []model.TypingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.TypingEvent, len(p.typing))
	copy(out, p.typing)
	return out
}

func (p *fakePublisher) presenceEvents() []model.PresenceEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.PresenceEvent, len(p.presence))
	copy(out, p.presence)
	return out
}

// fakeSubscriber hands the registered handler back to the test so it can
// fire insert signals on demand.
type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string]func()
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[string]func())}
}

func (s *fakeSubscriber) SubscribeNotifications(ownerID string, handler func()) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[ownerID] = handler
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers, ownerID)
	}, nil
}

func (s *fakeSubscriber) fire(ownerID string) {
	s.mu.Lock()
	handler := s.handlers[ownerID]
	s.mu.Unlock()
	if handler != nil {
		handler()
	}
}

// testEnv bundles the in-memory store with fully wired services.
type testEnv struct {
	store         *memory.Store
	publisher     *fakePublisher
	notifications *NotificationService
	conversations *ConversationService
	connections   *ConnectionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st := memory.New()
	pub := &fakePublisher{}
	log := logger.NewNop()
	perms := permission.Resolver{}

	notifications := NewNotificationService(st.Notifications(), pub, log)
	conversations := NewConversationService(st.Conversations(), st.Profiles(), notifications, pub, perms, log)
	connections := NewConnectionService(st.Connections(), st.Profiles(), conversations, notifications, pub, perms, log)

	return &testEnv{
		store:         st,
		publisher:     pub,
		notifications: notifications,
		conversations: conversations,
		connections:   connections,
	}
}

func (e *testEnv) seedProfile(t *testing.T, name string, role model.Role, tier model.Tier) *model.Identity {
	t.Helper()
	identity := &model.Identity{
		ID:    uuid.New().String(),
		Email: name + "@example.com",
		Name:  name,
		Role:  role,
		Tier:  tier,
	}
	require.NoError(t, e.store.Profiles().Create(context.Background(), identity))
	return identity
}
