// Package model defines data structures for the NextIgnition network core.
package model

import (
	"time"
)

// Role represents an identity's role on the platform.
type Role string

const (
	RoleFounder   Role = "founder"
	RoleCoFounder Role = "co-founder"
	RoleInvestor  Role = "investor"
	RoleExpert    Role = "expert"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFounder, RoleCoFounder, RoleInvestor, RoleExpert, RoleAdmin:
		return true
	}
	return false
}

// Tier represents a subscription tier.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// Identity represents a user account with its profile attributes.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Tier      Tier      `json:"tier"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio,omitempty"`
	Location  string    `json:"location,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Social links
	LinkedInURL string `json:"linkedin_url,omitempty"`
	TwitterURL  string `json:"twitter_url,omitempty"`
	WebsiteURL  string `json:"website_url,omitempty"`

	// Role-specific attributes (nullable outside the owning role)
	VentureName     string `json:"venture_name,omitempty"`
	VentureStage    string `json:"venture_stage,omitempty"`
	InvestmentFocus string `json:"investment_focus,omitempty"`
	Expertise       string `json:"expertise,omitempty"`
	HourlyRate      *int   `json:"hourly_rate,omitempty"`
}

// Summary returns a trimmed view of the identity for embedding in
// connection and conversation payloads.
func (i *Identity) Summary() IdentitySummary {
	return IdentitySummary{
		ID:        i.ID,
		Name:      i.Name,
		Role:      i.Role,
		AvatarURL: i.AvatarURL,
	}
}

// IdentitySummary is the trimmed identity view embedded in list responses.
type IdentitySummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      Role   `json:"role"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// UpdateProfileRequest is the request to update the caller's profile.
type UpdateProfileRequest struct {
	Name            string `json:"name,omitempty" validate:"omitempty,max=128"`
	Bio             string `json:"bio,omitempty" validate:"omitempty,max=2048"`
	Location        string `json:"location,omitempty" validate:"omitempty,max=128"`
	AvatarURL       string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	LinkedInURL     string `json:"linkedin_url,omitempty" validate:"omitempty,url"`
	TwitterURL      string `json:"twitter_url,omitempty" validate:"omitempty,url"`
	WebsiteURL      string `json:"website_url,omitempty" validate:"omitempty,url"`
	VentureName     string `json:"venture_name,omitempty" validate:"omitempty,max=128"`
	VentureStage    string `json:"venture_stage,omitempty" validate:"omitempty,max=64"`
	InvestmentFocus string `json:"investment_focus,omitempty" validate:"omitempty,max=256"`
	Expertise       string `json:"expertise,omitempty" validate:"omitempty,max=256"`
	HourlyRate      *int   `json:"hourly_rate,omitempty" validate:"omitempty,min=0"`
}

// ListProfilesResponse is the response for browsing the network.
type ListProfilesResponse struct {
	Profiles []Identity `json:"profiles"`
	Total    int        `json:"total"`
	HasMore  bool       `json:"has_more"`
}

// Session represents an authenticated session issued by the external
// auth provider. The core only ever reads the identity id from it.
type Session struct {
	IdentityID string    `json:"identity_id"`
	Token      string    `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
