package model

import (
	"time"
)

// CalendarToken holds the Google Calendar OAuth tokens for one identity.
// At most one row exists per identity (upsert on callback).
type CalendarToken struct {
	IdentityID   string    `json:"identity_id"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
