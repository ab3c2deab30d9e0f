package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextignition/network-api/internal/model"
)

func TestSendRequest_RefusesSelf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPremium)

	_, err := env.connections.SendRequest(ctx, alice.ID, alice.ID, "hi me")
	require.ErrorIs(t, err, model.ErrSelfConnection)
}

func TestSendRequest_CreatesPendingAndDerivedStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPremium)
	bob := env.seedProfile(t, "bob", model.RoleInvestor, model.TierPremium)

	conn, err := env.connections.SendRequest(ctx, alice.ID, bob.ID, "let's talk")
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionPending, conn.Status)
	assert.Equal(t, alice.ID, conn.RequesterID)
	assert.Equal(t, bob.ID, conn.TargetID)

	status, err := env.connections.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RelationshipSent, status)

	status, err = env.connections.Status(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RelationshipPending, status)

	// The target gets a notification; the requester does not.
	latest, err := env.notifications.Latest(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, latest.Notifications, 1)
	assert.Equal(t, model.NotificationConnection, latest.Notifications[0].Type)

	latest, err = env.notifications.Latest(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, latest.Notifications)
}

func TestSendRequest_RefusesDuplicateActiveEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPremium)
	bob := env.seedProfile(t, "bob", model.RoleInvestor, model.TierPremium)

	_, err := env.connections.SendRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)

	// Same direction.
	_, err = env.connections.SendRequest(ctx, alice.ID, bob.ID, "")
	assert.ErrorIs(t, err, model.ErrAlreadyConnected)

	// Reverse direction hits the same unordered-pair invariant.
	_, err = env.connections.SendRequest(ctx, bob.ID, alice.ID, "")
	assert.ErrorIs(t, err, model.ErrAlreadyConnected)
}

func TestAccept_OnlyTargetMayAccept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPremium)
	bob := env.seedProfile(t, "bob", model.RoleInvestor, model.TierPremium)

	conn, err := env.connections.SendRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)

	_, err = env.connections.Accept(ctx, alice.ID, conn.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)
}

func TestAccept_TransitionsAndEnsuresDirectConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPremium)
	bob := env.seedProfile(t, "bob", model.RoleInvestor, model.TierPremium)

	conn, err := env.connections.SendRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)

	accepted, err := env.connections.Accept(ctx, bob.ID, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionAccepted, accepted.Status)

	// Both sides now read accepted.
	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		status, err := env.connections.Status(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, model.RelationshipAccepted, status)
	}

	// The pair's direct conversation materialized on acceptance.
	count, err := env.conversations.CountDirect(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Acceptance notifies the original requester.
	latest, err := env.notifications.Latest(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, latest.Notifications, 1)
	assert.Equal(t, model.NotificationConnection, latest.Notifications[0].Type)

	// A second accept is refused: the edge is no longer pending.
	_, err = env.connections.Accept(ctx, bob.ID, conn.ID)
	assert.ErrorIs(t, err, model.ErrNotPending)
}

func TestReject_ClearsRelationshipAndAllowsRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPremium)
	bob := env.seedProfile(t, "bob", model.RoleInvestor, model.TierPremium)

	conn, err := env.connections.SendRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)
	require.NoError(t, env.connections.Reject(ctx, bob.ID, conn.ID))

	status, err := env.connections.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RelationshipNone, status)

	// A rejected edge is history; a fresh request may follow.
	_, err = env.connections.SendRequest(ctx, alice.ID, bob.ID, "second try")
	require.NoError(t, err)
}

func TestCancel_OnlyRequesterOnPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPremium)
	bob := env.seedProfile(t, "bob", model.RoleInvestor, model.TierPremium)

	conn, err := env.connections.SendRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)

	err = env.connections.Cancel(ctx, bob.ID, conn.ID)
	assert.ErrorIs(t, err, model.ErrForbidden)

	require.NoError(t, env.connections.Cancel(ctx, alice.ID, conn.ID))

	status, err := env.connections.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RelationshipNone, status)
}

func TestBlock_SuppressesFurtherRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPremium)
	bob := env.seedProfile(t, "bob", model.RoleInvestor, model.TierPremium)

	conn, err := env.connections.SendRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)
	require.NoError(t, env.connections.Block(ctx, bob.ID, conn.ID))

	status, err := env.connections.Status(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RelationshipNone, status)
}

func TestStats_CountsPerspective(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierPremium)
	bob := env.seedProfile(t, "bob", model.RoleInvestor, model.TierPremium)
	carol := env.seedProfile(t, "carol", model.RoleExpert, model.TierPremium)
	dave := env.seedProfile(t, "dave", model.RoleCoFounder, model.TierPremium)

	// bob accepted, carol pending towards alice, alice pending towards dave.
	conn, err := env.connections.SendRequest(ctx, alice.ID, bob.ID, "")
	require.NoError(t, err)
	_, err = env.connections.Accept(ctx, bob.ID, conn.ID)
	require.NoError(t, err)

	_, err = env.connections.SendRequest(ctx, carol.ID, alice.ID, "")
	require.NoError(t, err)
	_, err = env.connections.SendRequest(ctx, alice.ID, dave.ID, "")
	require.NoError(t, err)

	stats, err := env.connections.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalConnections)
	assert.Equal(t, 1, stats.PendingReceived)
	assert.Equal(t, 1, stats.PendingSent)
	assert.Equal(t, 1, stats.TotalChats)
}

func TestSendRequest_FreeTierPendingCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.seedProfile(t, "alice", model.RoleFounder, model.TierFree)

	for i := 0; i < 10; i++ {
		target := env.seedProfile(t, fmt.Sprintf("target%d", i), model.RoleInvestor, model.TierPremium)
		_, err := env.connections.SendRequest(ctx, alice.ID, target.ID, "")
		require.NoError(t, err)
	}

	extra := env.seedProfile(t, "extra", model.RoleInvestor, model.TierPremium)
	_, err := env.connections.SendRequest(ctx, alice.ID, extra.ID, "")
	assert.ErrorIs(t, err, model.ErrPendingLimit)
}
