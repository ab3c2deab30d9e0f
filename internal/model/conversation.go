package model

import (
	"time"
)

// Conversation represents a direct (2-party) or group (N-party) thread.
// Direct conversations are created implicitly when a connection is accepted
// or on first message; group conversations by explicit creation. Membership
// is append-only and conversations are never deleted.
type Conversation struct {
	ID        string    `json:"id"`
	IsGroup   bool      `json:"is_group"`
	Title     string    `json:"title,omitempty"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LastMessage   string     `json:"last_message,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
}

// ConversationMember is a membership row with its per-member unread counter.
type ConversationMember struct {
	ConversationID string    `json:"conversation_id"`
	IdentityID     string    `json:"identity_id"`
	UnreadCount    int       `json:"unread_count"`
	JoinedAt       time.Time `json:"joined_at"`
}

// ChatMessage represents a message inside a conversation.
type ChatMessage struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	SenderName     string    `json:"sender_name,omitempty"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// ConversationView is a conversation annotated for one member: unread count,
// member summaries and live online flags for counterparts.
type ConversationView struct {
	Conversation
	UnreadCount int               `json:"unread_count"`
	Members     []IdentitySummary `json:"members"`
	Online      map[string]bool   `json:"online,omitempty"`
}

// CreateGroupRequest is the request to create a group conversation.
type CreateGroupRequest struct {
	Title     string   `json:"title" validate:"required,max=128"`
	MemberIDs []string `json:"member_ids" validate:"required,min=1,dive,uuid"`
}

// SendChatMessageRequest is the request to append a message.
type SendChatMessageRequest struct {
	Content string `json:"content" validate:"required,max=8192"`
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []ConversationView `json:"conversations"`
	Total         int                `json:"total"`
}

// ListMessagesResponse is the response for listing messages.
type ListMessagesResponse struct {
	Messages []ChatMessage `json:"messages"`
	HasMore  bool          `json:"has_more"`
}
