package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/nextignition/network-api/internal/model"
)

const (
	// StreamName is the name of the durable domain event stream.
	StreamName = "NETWORK"

	// SubjectPrefix is the prefix for all durable domain subjects.
	SubjectPrefix = "network"

	// PresencePrefix is the prefix for ephemeral presence subjects. These
	// are never captured by the stream; typing and online signals have no
	// replay value.
	PresencePrefix = "presence"
)

// Bus publishes and subscribes to domain and presence events.
type Bus struct {
	client *Client
}

// NewBus creates a bus on an established client.
func NewBus(client *Client) *Bus {
	return &Bus{client: client}
}

// EnsureStream ensures the domain event stream exists.
func (b *Bus) EnsureStream(ctx context.Context) error {
	js := b.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Connection and notification domain events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// ConnectionSubject returns the subject for a connection event addressed to
// an identity.
func ConnectionSubject(identityID string, action model.ConnectionAction) string {
	return fmt.Sprintf("%s.%s.connection.%s", SubjectPrefix, identityID, action)
}

// NotificationSubject returns the subject for a notification-insert event.
func NotificationSubject(ownerID string) string {
	return fmt.Sprintf("%s.%s.notification.created", SubjectPrefix, ownerID)
}

// TypingSubject returns the ephemeral subject for a conversation's typing
// signals.
func TypingSubject(conversationID string) string {
	return fmt.Sprintf("%s.typing.%s", PresencePrefix, conversationID)
}

// OnlineSubject is the ephemeral subject for online/offline transitions.
func OnlineSubject() string {
	return fmt.Sprintf("%s.online", PresencePrefix)
}

// PublishConnectionEvent publishes a connection lifecycle event to the
// durable stream, addressed to the recipient.
func (b *Bus) PublishConnectionEvent(ctx context.Context, ev *model.ConnectionEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal connection event: %w", err)
	}
	_, err = b.client.JetStream().Publish(ctx, ConnectionSubject(ev.RecipientID, ev.Action), data)
	if err != nil {
		return fmt.Errorf("failed to publish connection event: %w", err)
	}
	return nil
}

// PublishNotificationCreated publishes a notification-insert event to the
// durable stream. Payloads carry only the row id; subscribers re-fetch.
func (b *Bus) PublishNotificationCreated(ctx context.Context, n *model.Notification) error {
	data, err := json.Marshal(map[string]string{"id": n.ID, "owner_id": n.OwnerID})
	if err != nil {
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}
	_, err = b.client.JetStream().Publish(ctx, NotificationSubject(n.OwnerID), data)
	if err != nil {
		return fmt.Errorf("failed to publish notification event: %w", err)
	}
	return nil
}

// PublishTyping broadcasts an ephemeral typing signal over core NATS.
func (b *Bus) PublishTyping(ev *model.TypingEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal typing event: %w", err)
	}
	return b.client.Conn().Publish(TypingSubject(ev.ConversationID), data)
}

// PublishPresence broadcasts an ephemeral online/offline transition.
func (b *Bus) PublishPresence(ev *model.PresenceEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal presence event: %w", err)
	}
	return b.client.Conn().Publish(OnlineSubject(), data)
}

// SubscribeNotifications delivers notification-insert signals for one
// identity. JetStream publishes traverse the core subject too, so a plain
// subscription sees them without a consumer; the relay re-fetches from the
// store rather than trusting the payload.
func (b *Bus) SubscribeNotifications(ownerID string, handler func()) (func(), error) {
	sub, err := b.client.Conn().Subscribe(NotificationSubject(ownerID), func(msg *nats.Msg) {
		handler()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// SubscribeConnectionEvents delivers connection lifecycle events addressed
// to one identity.
func (b *Bus) SubscribeConnectionEvents(identityID string, handler func(model.ConnectionEvent)) (func(), error) {
	subject := fmt.Sprintf("%s.%s.connection.>", SubjectPrefix, identityID)
	sub, err := b.client.Conn().Subscribe(subject, func(msg *nats.Msg) {
		var ev model.ConnectionEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// SubscribeTyping delivers typing signals for one conversation.
func (b *Bus) SubscribeTyping(conversationID string, handler func(model.TypingEvent)) (func(), error) {
	sub, err := b.client.Conn().Subscribe(TypingSubject(conversationID), func(msg *nats.Msg) {
		var ev model.TypingEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// SubscribePresence delivers online/offline transitions platform-wide.
func (b *Bus) SubscribePresence(handler func(model.PresenceEvent)) (func(), error) {
	sub, err := b.client.Conn().Subscribe(OnlineSubject(), func(msg *nats.Msg) {
		var ev model.PresenceEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		handler(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}
