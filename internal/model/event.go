package model

import (
	"time"
)

// ConnectionAction is the lifecycle transition carried by a connection event.
type ConnectionAction string

const (
	ConnectionActionRequested ConnectionAction = "requested"
	ConnectionActionAccepted  ConnectionAction = "accepted"
	ConnectionActionRejected  ConnectionAction = "rejected"
	ConnectionActionCancelled ConnectionAction = "cancelled"
	ConnectionActionBlocked   ConnectionAction = "blocked"
)

// ConnectionEvent is the domain event published on every connection
// lifecycle transition. It is addressed to the counterpart who needs to
// react to the transition.
type ConnectionEvent struct {
	ID           string           `json:"id"`
	ConnectionID string           `json:"connection_id"`
	Action       ConnectionAction `json:"action"`
	ActorID      string           `json:"actor_id"`
	RecipientID  string           `json:"recipient_id"`
	CreatedAt    time.Time        `json:"created_at"`
}

// TypingEvent is the ephemeral typing signal broadcast to conversation
// counterparts. Never persisted; expires client-side after the idle window.
type TypingEvent struct {
	ConversationID string    `json:"conversation_id"`
	IdentityID     string    `json:"identity_id"`
	Name           string    `json:"name,omitempty"`
	Typing         bool      `json:"typing"`
	Timestamp      time.Time `json:"timestamp"`
}

// PresenceEvent signals an identity going online or offline.
type PresenceEvent struct {
	IdentityID string    `json:"identity_id"`
	Online     bool      `json:"online"`
	Timestamp  time.Time `json:"timestamp"`
}

// HeartbeatEvent keeps long-lived event streams alive.
type HeartbeatEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// ErrorEvent is pushed on a live stream when a server-side step fails.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
