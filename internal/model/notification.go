package model

import (
	"time"
)

// NotificationType classifies a notification event.
type NotificationType string

const (
	NotificationConnection NotificationType = "connection"
	NotificationMessage    NotificationType = "message"
	NotificationSystem     NotificationType = "system"
	NotificationFunding    NotificationType = "funding"
	NotificationSession    NotificationType = "session"
	NotificationReview     NotificationType = "review"
	NotificationMentorship NotificationType = "mentorship"
)

// Valid reports whether the type is one of the known notification types.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationConnection, NotificationMessage, NotificationSystem,
		NotificationFunding, NotificationSession, NotificationReview,
		NotificationMentorship:
		return true
	}
	return false
}

// Notification is a persisted, at-most-once-read event record owned by one
// identity. Created in response to domain events; mutated only by the owner.
type Notification struct {
	ID        string           `json:"id"`
	OwnerID   string           `json:"owner_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body,omitempty"`
	Read      bool             `json:"read"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// ListNotificationsResponse is the response for the notification feed.
type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}
