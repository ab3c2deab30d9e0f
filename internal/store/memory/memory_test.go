package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/store"
)

func newConnection(a, b string, status model.ConnectionStatus) *model.Connection {
	now := time.Now().UTC()
	return &model.Connection{
		ID:          uuid.New().String(),
		RequesterID: a,
		TargetID:    b,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestConnections_OneActiveEdgePerPair(t *testing.T) {
	st := New()
	ctx := context.Background()

	require.NoError(t, st.Connections().Create(ctx, newConnection("a", "b", model.ConnectionPending)))

	// Same pair, either direction, is refused while the edge is active.
	err := st.Connections().Create(ctx, newConnection("a", "b", model.ConnectionPending))
	assert.ErrorIs(t, err, model.ErrAlreadyConnected)
	err = st.Connections().Create(ctx, newConnection("b", "a", model.ConnectionPending))
	assert.ErrorIs(t, err, model.ErrAlreadyConnected)

	// A different pair is fine.
	require.NoError(t, st.Connections().Create(ctx, newConnection("a", "c", model.ConnectionPending)))
}

func TestConnections_RejectedEdgeFreesThePair(t *testing.T) {
	st := New()
	ctx := context.Background()

	first := newConnection("a", "b", model.ConnectionPending)
	require.NoError(t, st.Connections().Create(ctx, first))
	require.NoError(t, st.Connections().UpdateStatus(ctx, first.ID, model.ConnectionRejected))

	_, err := st.Connections().ActiveBetween(ctx, "a", "b")
	assert.ErrorIs(t, err, model.ErrNotFound)

	require.NoError(t, st.Connections().Create(ctx, newConnection("b", "a", model.ConnectionPending)))
}

func TestConnections_ListsByPerspective(t *testing.T) {
	st := New()
	ctx := context.Background()

	accepted := newConnection("me", "friend", model.ConnectionAccepted)
	require.NoError(t, st.Connections().Create(ctx, accepted))
	require.NoError(t, st.Connections().Create(ctx, newConnection("me", "prospect", model.ConnectionPending)))
	require.NoError(t, st.Connections().Create(ctx, newConnection("admirer", "me", model.ConnectionPending)))

	got, err := st.Connections().ListAccepted(ctx, "me")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, accepted.ID, got[0].ID)

	sent, err := st.Connections().ListPendingSent(ctx, "me")
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, "prospect", sent[0].TargetID)

	received, err := st.Connections().ListPendingReceived(ctx, "me")
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "admirer", received[0].RequesterID)

	count, err := st.Connections().CountAccepted(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConversations_EnsureDirectIsIdempotent(t *testing.T) {
	st := New()
	ctx := context.Background()

	conv, created, err := st.Conversations().EnsureDirect(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, conv.IsGroup)

	again, created, err := st.Conversations().EnsureDirect(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)

	count, err := st.Conversations().CountDirect(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestConversations_AppendTracksUnreadAndPreview(t *testing.T) {
	st := New()
	ctx := context.Background()

	conv, _, err := st.Conversations().EnsureDirect(ctx, "a", "b")
	require.NoError(t, err)

	msg := &model.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       "a",
		Content:        "first",
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, st.Conversations().AppendMessage(ctx, msg))

	unread, err := st.Conversations().UnreadCount(ctx, conv.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	unread, err = st.Conversations().UnreadCount(ctx, conv.ID, "a")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)

	require.NoError(t, st.Conversations().MarkRead(ctx, conv.ID, "b"))
	unread, err = st.Conversations().UnreadCount(ctx, conv.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, 0, unread)
}

func TestProfiles_ListFiltersAndExcludes(t *testing.T) {
	st := New()
	ctx := context.Background()

	for _, p := range []struct {
		name string
		role model.Role
	}{
		{"alice", model.RoleFounder},
		{"bob", model.RoleInvestor},
		{"carol", model.RoleFounder},
	} {
		require.NoError(t, st.Profiles().Create(ctx, &model.Identity{
			ID:   p.name,
			Name: p.name,
			Role: p.role,
		}))
	}

	founders, total, err := st.Profiles().List(ctx, store.ListProfilesFilter{
		Role:  model.RoleFounder,
		Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, founders, 2)

	others, total, err := st.Profiles().List(ctx, store.ListProfilesFilter{
		ExcludeID: "alice",
		Limit:     10,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, p := range others {
		assert.NotEqual(t, "alice", p.ID)
	}
}

func TestTokens_UpsertPreservesRefreshToken(t *testing.T) {
	st := New()
	ctx := context.Background()

	require.NoError(t, st.Tokens().Upsert(ctx, &model.CalendarToken{
		IdentityID:   "a",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}))

	// Google omits the refresh token on re-consent; the stored one stays.
	require.NoError(t, st.Tokens().Upsert(ctx, &model.CalendarToken{
		IdentityID:  "a",
		AccessToken: "access-2",
	}))

	token, err := st.Tokens().Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "access-2", token.AccessToken)
	assert.Equal(t, "refresh-1", token.RefreshToken)
}
