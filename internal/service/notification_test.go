package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/pkg/logger"
)

// failingMarkRead wraps a repository and fails every write, leaving reads
// intact.
type failingMarkRead struct {
	store.NotificationRepository
}

func (f *failingMarkRead) MarkRead(ctx context.Context, ownerID, id string) error {
	return errors.New("store unavailable")
}

func (f *failingMarkRead) MarkAllRead(ctx context.Context, ownerID string) error {
	return errors.New("store unavailable")
}

func seedNotifications(t *testing.T, env *testEnv, ownerID string, n int) {
	t.Helper()
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Duration(n) * time.Second)
	for i := 0; i < n; i++ {
		_, err := env.notifications.Create(ctx, &model.Notification{
			OwnerID:   ownerID,
			Type:      model.NotificationSystem,
			Title:     fmt.Sprintf("event %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
}

func TestLatest_CapsAtFiftyNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedProfile(t, "owner", model.RoleFounder, model.TierPremium)

	seedNotifications(t, env, owner.ID, 60)

	resp, err := env.notifications.Latest(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, resp.Notifications, 50)
	assert.Equal(t, "event 59", resp.Notifications[0].Title)
	assert.Equal(t, "event 10", resp.Notifications[49].Title)
	assert.Equal(t, 50, resp.UnreadCount)
}

func TestRelay_RefreshesOnInsertSignal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedProfile(t, "owner", model.RoleFounder, model.TierPremium)
	sub := newFakeSubscriber()

	var updates [][]model.Notification
	relay := NewNotificationRelay(owner.ID, env.store.Notifications(), sub,
		func(items []model.Notification) {
			updates = append(updates, items)
		},
		logger.NewNop(),
	)
	require.NoError(t, relay.Start(ctx))
	defer relay.Close()

	// Initial fetch on an empty feed.
	assert.Empty(t, relay.Notifications())
	require.Len(t, updates, 1)

	// An insert lands in the store, then the signal arrives. The relay
	// re-fetches the whole view rather than trusting any payload.
	_, err := env.notifications.Create(ctx, &model.Notification{
		OwnerID: owner.ID,
		Type:    model.NotificationFunding,
		Title:   "New funding round posted",
	})
	require.NoError(t, err)
	sub.fire(owner.ID)

	items := relay.Notifications()
	require.Len(t, items, 1)
	assert.Equal(t, model.NotificationFunding, items[0].Type)
	assert.Equal(t, 1, relay.UnreadCount())
	require.Len(t, updates, 2)
}

func TestRelay_ByTypeFiltersLocally(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedProfile(t, "owner", model.RoleFounder, model.TierPremium)
	sub := newFakeSubscriber()

	for _, typ := range []model.NotificationType{
		model.NotificationConnection,
		model.NotificationMessage,
		model.NotificationConnection,
	} {
		_, err := env.notifications.Create(ctx, &model.Notification{
			OwnerID: owner.ID,
			Type:    typ,
			Title:   string(typ),
		})
		require.NoError(t, err)
	}

	relay := NewNotificationRelay(owner.ID, env.store.Notifications(), sub, nil, logger.NewNop())
	require.NoError(t, relay.Start(ctx))
	defer relay.Close()

	assert.Len(t, relay.ByType(model.NotificationConnection), 2)
	assert.Len(t, relay.ByType(model.NotificationMessage), 1)
	assert.Empty(t, relay.ByType(model.NotificationFunding))
}

func TestRelay_MarkReadIsOptimistic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedProfile(t, "owner", model.RoleFounder, model.TierPremium)
	sub := newFakeSubscriber()

	created, err := env.notifications.Create(ctx, &model.Notification{
		OwnerID: owner.ID,
		Type:    model.NotificationSystem,
		Title:   "welcome",
	})
	require.NoError(t, err)

	// Reads hit the real store; writes always fail.
	relay := NewNotificationRelay(owner.ID,
		&failingMarkRead{NotificationRepository: env.store.Notifications()},
		sub, nil, logger.NewNop())
	require.NoError(t, relay.Start(ctx))
	defer relay.Close()

	require.Equal(t, 1, relay.UnreadCount())

	// The local flag flips even though the remote write fails, and there is
	// no rollback.
	relay.MarkRead(ctx, created.ID)
	assert.Equal(t, 0, relay.UnreadCount())
	assert.True(t, relay.Notifications()[0].Read)
}

func TestRelay_MarkAllRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.seedProfile(t, "owner", model.RoleFounder, model.TierPremium)
	sub := newFakeSubscriber()

	seedNotifications(t, env, owner.ID, 5)

	relay := NewNotificationRelay(owner.ID, env.store.Notifications(), sub, nil, logger.NewNop())
	require.NoError(t, relay.Start(ctx))
	defer relay.Close()

	require.Equal(t, 5, relay.UnreadCount())
	relay.MarkAllRead(ctx)
	assert.Equal(t, 0, relay.UnreadCount())

	// The store agrees after a refresh.
	relay.Refresh(ctx)
	assert.Equal(t, 0, relay.UnreadCount())
}
