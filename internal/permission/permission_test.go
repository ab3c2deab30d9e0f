package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nextignition/network-api/internal/model"
)

func TestForTier(t *testing.T) {
	free := ForTier(model.TierFree)
	assert.True(t, free.CanSendConnectionRequests)
	assert.False(t, free.CanCreateGroups)
	assert.Equal(t, 10, free.MaxPendingRequests)

	pro := ForTier(model.TierPro)
	assert.True(t, pro.CanCreateGroups)
	assert.True(t, pro.CanScheduleMeetings)
	assert.False(t, pro.CanHostWebinars)

	premium := ForTier(model.TierPremium)
	assert.True(t, premium.CanHostWebinars)
	assert.Zero(t, premium.MaxPendingRequests)
}

func TestForTier_UnknownFallsBackToFree(t *testing.T) {
	got := ForTier(model.Tier("enterprise"))
	assert.Equal(t, ForTier(model.TierFree), got)
}

func TestResolver_GrantAllOverride(t *testing.T) {
	identity := &model.Identity{Tier: model.TierFree}

	strict := Resolver{}
	assert.False(t, strict.For(identity).CanCreateGroups)

	staging := Resolver{GrantAll: true}
	set := staging.For(identity)
	assert.True(t, set.CanCreateGroups)
	assert.True(t, set.CanHostWebinars)
	assert.Zero(t, set.MaxPendingRequests)
}
