// Package store defines the storage interfaces for the network core.
// Postgres (pgx) backs production; an in-memory implementation backs tests.
package store

import (
	"context"
	"time"

	"github.com/nextignition/network-api/internal/model"
)

// ListProfilesFilter narrows a network browse query.
type ListProfilesFilter struct {
	Role      model.Role
	ExcludeID string
	Limit     int
	Offset    int
}

// ProfileRepository persists identities and their profile attributes.
type ProfileRepository interface {
	Get(ctx context.Context, id string) (*model.Identity, error)
	Create(ctx context.Context, identity *model.Identity) error
	Update(ctx context.Context, identity *model.Identity) error
	List(ctx context.Context, filter ListProfilesFilter) ([]model.Identity, int, error)
}

// ConnectionRepository persists the connection graph. Create must refuse a
// second active (pending or accepted) edge for the same unordered pair with
// model.ErrAlreadyConnected.
type ConnectionRepository interface {
	Create(ctx context.Context, conn *model.Connection) error
	Get(ctx context.Context, id string) (*model.Connection, error)
	UpdateStatus(ctx context.Context, id string, status model.ConnectionStatus) error
	Delete(ctx context.Context, id string) error

	// ActiveBetween returns the active edge for the unordered pair {a, b},
	// or model.ErrNotFound when none exists.
	ActiveBetween(ctx context.Context, a, b string) (*model.Connection, error)

	ListAccepted(ctx context.Context, identityID string) ([]model.Connection, error)
	ListPendingReceived(ctx context.Context, identityID string) ([]model.Connection, error)
	ListPendingSent(ctx context.Context, identityID string) ([]model.Connection, error)
	CountAccepted(ctx context.Context, identityID string) (int, error)
}

// ConversationRepository persists conversations, membership and messages.
// AppendMessage updates the conversation preview and increments the unread
// counter of every member except the sender in the same operation.
type ConversationRepository interface {
	Create(ctx context.Context, conv *model.Conversation, memberIDs []string) error
	Get(ctx context.Context, id string) (*model.Conversation, error)

	// EnsureDirect returns the direct conversation for the pair, creating
	// it if absent. The bool reports whether a new one was created.
	EnsureDirect(ctx context.Context, a, b string) (*model.Conversation, bool, error)

	AddMember(ctx context.Context, conversationID, identityID string) error
	IsMember(ctx context.Context, conversationID, identityID string) (bool, error)
	Members(ctx context.Context, conversationID string) ([]model.ConversationMember, error)
	ListForIdentity(ctx context.Context, identityID string) ([]model.Conversation, error)
	UnreadCount(ctx context.Context, conversationID, identityID string) (int, error)

	AppendMessage(ctx context.Context, msg *model.ChatMessage) error
	Messages(ctx context.Context, conversationID string, limit int, before time.Time) ([]model.ChatMessage, error)
	MarkRead(ctx context.Context, conversationID, identityID string) error

	// CountDirect counts the identity's direct (is_group = false)
	// conversations. Group channels never count.
	CountDirect(ctx context.Context, identityID string) (int, error)
}

// NotificationRepository persists notification rows.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	Latest(ctx context.Context, ownerID string, limit int) ([]model.Notification, error)
	MarkRead(ctx context.Context, ownerID, id string) error
	MarkAllRead(ctx context.Context, ownerID string) error
	Delete(ctx context.Context, ownerID, id string) error
}

// TokenRepository persists Google Calendar OAuth tokens, one row per
// identity.
type TokenRepository interface {
	Upsert(ctx context.Context, token *model.CalendarToken) error
	Get(ctx context.Context, identityID string) (*model.CalendarToken, error)
}
