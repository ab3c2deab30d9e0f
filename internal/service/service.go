// Package service implements the connection graph, conversation/presence
// derivation, notification relay and session plumbing.
package service

import (
	"context"

	"github.com/nextignition/network-api/internal/model"
)

// Publisher is the event transport consumed by services. The NATS bus
// implements it; tests substitute a recorder.
type Publisher interface {
	PublishConnectionEvent(ctx context.Context, ev *model.ConnectionEvent) error
	PublishNotificationCreated(ctx context.Context, n *model.Notification) error
	PublishTyping(ev *model.TypingEvent) error
	PublishPresence(ev *model.PresenceEvent) error
}

// NotificationSubscriber delivers a signal whenever a notification row is
// inserted for the identity. The handler carries no payload; consumers
// re-fetch from the store. The returned func tears the subscription down
// and must be called on teardown.
type NotificationSubscriber interface {
	SubscribeNotifications(ownerID string, handler func()) (func(), error)
}
