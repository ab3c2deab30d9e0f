package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/permission"
	"github.com/nextignition/network-api/internal/service"
	"github.com/nextignition/network-api/internal/store/memory"
	"github.com/nextignition/network-api/pkg/logger"
)

type nopPublisher struct{}

func (nopPublisher) PublishConnectionEvent(ctx context.Context, ev *model.ConnectionEvent) error {
	return nil
}
func (nopPublisher) PublishNotificationCreated(ctx context.Context, n *model.Notification) error {
	return nil
}
func (nopPublisher) PublishTyping(ev *model.TypingEvent) error     { return nil }
func (nopPublisher) PublishPresence(ev *model.PresenceEvent) error { return nil }

type hubFixture struct {
	hub      *Hub
	store    *memory.Store
	presence *service.PresenceTracker
	alice    *model.Identity
	bob      *model.Identity
	convID   string
}

func newHubFixture(t *testing.T) *hubFixture {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	log := logger.NewNop()
	pub := nopPublisher{}
	perms := permission.Resolver{GrantAll: true}

	notifications := service.NewNotificationService(st.Notifications(), pub, log)
	conversations := service.NewConversationService(st.Conversations(), st.Profiles(), notifications, pub, perms, log)
	presence := service.NewPresenceTracker(pub, time.Second, log)
	t.Cleanup(presence.Close)

	alice := &model.Identity{ID: uuid.New().String(), Name: "Alice", Role: model.RoleFounder, Tier: model.TierPremium}
	bob := &model.Identity{ID: uuid.New().String(), Name: "Bob", Role: model.RoleInvestor, Tier: model.TierPremium}
	require.NoError(t, st.Profiles().Create(ctx, alice))
	require.NoError(t, st.Profiles().Create(ctx, bob))

	conv, _, err := st.Conversations().EnsureDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// No bus in tests; events ride the inbound channel only.
	hub := NewHub(conversations, st.Conversations(), presence, nil, log)
	require.NoError(t, hub.Start(ctx))
	t.Cleanup(hub.Close)

	return &hubFixture{
		hub:      hub,
		store:    st,
		presence: presence,
		alice:    alice,
		bob:      bob,
		convID:   conv.ID,
	}
}

func attach(t *testing.T, f *hubFixture, identity *model.Identity) *Client {
	t.Helper()
	client := &Client{
		hub:        f.hub,
		send:       make(chan []byte, 8),
		identityID: identity.ID,
		name:       identity.Name,
	}
	f.hub.register <- client
	require.Eventually(t, func() bool {
		return f.presence.IsOnline(identity.ID)
	}, time.Second, 5*time.Millisecond)
	return client
}

func receiveFrame(t *testing.T, client *Client) Frame {
	t.Helper()
	select {
	case data := <-client.send:
		var frame Frame
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func TestHub_ChatMessagePersistsAndFansOut(t *testing.T) {
	f := newHubFixture(t)
	aliceClient := attach(t, f, f.alice)
	bobClient := attach(t, f, f.bob)

	f.hub.inbound <- inbound{client: aliceClient, frame: Frame{
		Type:           FrameChatMessage,
		ConversationID: f.convID,
		Content:        "Hello World",
	}}

	// Both the counterpart and the sender's own attachment get the row.
	for _, client := range []*Client{aliceClient, bobClient} {
		frame := receiveFrame(t, client)
		require.Equal(t, FrameMessage, frame.Type)
		var msg model.ChatMessage
		require.NoError(t, json.Unmarshal(frame.Data, &msg))
		assert.Equal(t, "Hello World", msg.Content)
		assert.Equal(t, f.alice.ID, msg.SenderID)
	}

	// And the message is durable.
	msgs, err := f.store.Conversations().Messages(context.Background(), f.convID, 10, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello World", msgs[0].Content)
}

func TestHub_RejectsMessageFromNonMember(t *testing.T) {
	f := newHubFixture(t)
	mallory := &model.Identity{ID: uuid.New().String(), Name: "Mallory", Role: model.RoleExpert, Tier: model.TierPremium}
	require.NoError(t, f.store.Profiles().Create(context.Background(), mallory))
	client := attach(t, f, mallory)

	f.hub.inbound <- inbound{client: client, frame: Frame{
		Type:           FrameChatMessage,
		ConversationID: f.convID,
		Content:        "let me in",
	}}

	frame := receiveFrame(t, client)
	assert.Equal(t, FrameError, frame.Type)
}

func TestHub_PresenceFollowsAttachments(t *testing.T) {
	f := newHubFixture(t)

	first := attach(t, f, f.alice)
	second := attach(t, f, f.alice)
	assert.True(t, f.presence.IsOnline(f.alice.ID))

	f.hub.unregister <- first
	require.Eventually(t, func() bool {
		return f.presence.IsOnline(f.alice.ID)
	}, time.Second, 5*time.Millisecond)

	f.hub.unregister <- second
	require.Eventually(t, func() bool {
		return !f.presence.IsOnline(f.alice.ID)
	}, time.Second, 5*time.Millisecond)
}

type capturingSubscriber struct {
	onTyping   func(model.TypingEvent)
	onPresence func(model.PresenceEvent)
}

func (s *capturingSubscriber) SubscribeTyping(conversationID string, handler func(model.TypingEvent)) (func(), error) {
	s.onTyping = handler
	return func() {}, nil
}

func (s *capturingSubscriber) SubscribePresence(handler func(model.PresenceEvent)) (func(), error) {
	s.onPresence = handler
	return func() {}, nil
}

func TestHub_BusEventsSafeDuringClientChurn(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	log := logger.NewNop()
	pub := nopPublisher{}
	perms := permission.Resolver{GrantAll: true}

	notifications := service.NewNotificationService(st.Notifications(), pub, log)
	conversations := service.NewConversationService(st.Conversations(), st.Profiles(), notifications, pub, perms, log)
	presence := service.NewPresenceTracker(pub, time.Second, log)
	t.Cleanup(presence.Close)

	sub := &capturingSubscriber{}
	hub := NewHub(conversations, st.Conversations(), presence, sub, log)
	require.NoError(t, hub.Start(ctx))
	t.Cleanup(hub.Close)

	alice := &model.Identity{ID: uuid.New().String(), Name: "Alice", Role: model.RoleFounder, Tier: model.TierPremium}
	bob := &model.Identity{ID: uuid.New().String(), Name: "Bob", Role: model.RoleInvestor, Tier: model.TierPremium}
	require.NoError(t, st.Profiles().Create(ctx, alice))
	require.NoError(t, st.Profiles().Create(ctx, bob))
	conv, _, err := st.Conversations().EnsureDirect(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	// Bus delivery happens on its own goroutine while clients churn through
	// the register/unregister channels on this one.
	stop := make(chan struct{})
	fired := make(chan struct{})
	go func() {
		defer close(fired)
		for {
			select {
			case <-stop:
				return
			default:
				sub.onTyping(model.TypingEvent{ConversationID: conv.ID, IdentityID: alice.ID, Name: alice.Name, Typing: true})
				sub.onPresence(model.PresenceEvent{IdentityID: bob.ID, Online: true})
			}
		}
	}()

	for i := 0; i < 200; i++ {
		client := &Client{
			hub:        hub,
			send:       make(chan []byte, 1),
			identityID: bob.ID,
			name:       bob.Name,
		}
		hub.register <- client
		hub.unregister <- client
	}
	close(stop)
	<-fired

	require.Eventually(t, func() bool {
		return !presence.IsOnline(bob.ID)
	}, time.Second, 5*time.Millisecond)
}

func TestHub_TypingFramesReachTracker(t *testing.T) {
	f := newHubFixture(t)
	client := attach(t, f, f.alice)

	f.hub.inbound <- inbound{client: client, frame: Frame{
		Type:           FrameTypingStart,
		ConversationID: f.convID,
	}}

	// The tracker owns the indicator now; a stop frame clears it without
	// waiting for the idle window.
	f.hub.inbound <- inbound{client: client, frame: Frame{
		Type:           FrameTypingStop,
		ConversationID: f.convID,
	}}

	// Unknown frames answer with an error instead of being dropped.
	f.hub.inbound <- inbound{client: client, frame: Frame{Type: "bogus"}}
	frame := receiveFrame(t, client)
	assert.Equal(t, FrameError, frame.Type)
}
