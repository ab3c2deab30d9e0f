// Package permission maps subscription tiers onto feature flags.
package permission

import (
	"github.com/nextignition/network-api/internal/model"
)

// Set is the feature flag set derived from a subscription tier.
type Set struct {
	CanSendConnectionRequests bool `json:"can_send_connection_requests"`
	CanCreateGroups           bool `json:"can_create_groups"`
	CanHostWebinars           bool `json:"can_host_webinars"`
	CanScheduleMeetings       bool `json:"can_schedule_meetings"`
	MaxPendingRequests        int  `json:"max_pending_requests"`
}

// all grants everything with no pending-request cap.
var all = Set{
	CanSendConnectionRequests: true,
	CanCreateGroups:           true,
	CanHostWebinars:           true,
	CanScheduleMeetings:       true,
	MaxPendingRequests:        0,
}

var byTier = map[model.Tier]Set{
	model.TierFree: {
		CanSendConnectionRequests: true,
		MaxPendingRequests:        10,
	},
	model.TierPro: {
		CanSendConnectionRequests: true,
		CanCreateGroups:           true,
		CanScheduleMeetings:       true,
		MaxPendingRequests:        50,
	},
	model.TierPremium: all,
}

// ForTier returns the feature flags for a subscription tier. Unknown tiers
// get the free set.
func ForTier(tier model.Tier) Set {
	if s, ok := byTier[tier]; ok {
		return s
	}
	return byTier[model.TierFree]
}

// Resolver resolves permissions for identities. GrantAll is the explicit
// staging override that bypasses the tier table.
type Resolver struct {
	GrantAll bool
}

// For returns the effective permission set for an identity.
func (r Resolver) For(identity *model.Identity) Set {
	if r.GrantAll {
		return all
	}
	return ForTier(identity.Tier)
}
