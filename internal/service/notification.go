package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/pkg/logger"
	"github.com/nextignition/network-api/pkg/metrics"
)

// relayLimit caps the relay's local view at the most recent rows.
const relayLimit = 50

// NotificationService persists notification rows and fans the insert signal
// out over the event bus.
type NotificationService struct {
	notifications store.NotificationRepository
	publisher     Publisher
	logger        *logger.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(notifications store.NotificationRepository, publisher Publisher, log *logger.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		publisher:     publisher,
		logger:        log,
	}
}

// Create persists a notification and publishes the insert event. Missing id
// and timestamp are filled in.
func (s *NotificationService) Create(ctx context.Context, n *model.Notification) (*model.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.Must(uuid.NewV7()).String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	metrics.NotificationsTotal.WithLabelValues(string(n.Type)).Inc()

	if err := s.publisher.PublishNotificationCreated(ctx, n); err != nil {
		s.logger.Error("failed to publish notification event",
			"notification_id", n.ID, "error", err)
	}
	return n, nil
}

// Latest returns the owner's most recent rows with the aggregate unread
// count.
func (s *NotificationService) Latest(ctx context.Context, ownerID string) (*model.ListNotificationsResponse, error) {
	items, err := s.notifications.Latest(ctx, ownerID, relayLimit)
	if err != nil {
		return nil, err
	}
	return &model.ListNotificationsResponse{
		Notifications: items,
		UnreadCount:   countUnread(items),
	}, nil
}

// MarkRead flags one row as read.
func (s *NotificationService) MarkRead(ctx context.Context, ownerID, id string) error {
	return s.notifications.MarkRead(ctx, ownerID, id)
}

// MarkAllRead flags every row as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, ownerID string) error {
	return s.notifications.MarkAllRead(ctx, ownerID)
}

// Delete removes one row.
func (s *NotificationService) Delete(ctx context.Context, ownerID, id string) error {
	return s.notifications.Delete(ctx, ownerID, id)
}

// NotificationRelay keeps one identity's local ordered view (newest first,
// capped at 50) in sync with the store. Every insert event triggers a full
// re-fetch rather than an incremental merge; a later refresh always wins.
type NotificationRelay struct {
	owner         string
	notifications store.NotificationRepository
	subscriber    NotificationSubscriber
	onUpdate      func([]model.Notification)
	logger        *logger.Logger

	mu    sync.RWMutex
	items []model.Notification
	unsub func()
}

// NewNotificationRelay creates a relay for one identity. onUpdate (may be
// nil) fires with the fresh view after every successful refresh.
func NewNotificationRelay(
	owner string,
	notifications store.NotificationRepository,
	subscriber NotificationSubscriber,
	onUpdate func([]model.Notification),
	log *logger.Logger,
) *NotificationRelay {
	return &NotificationRelay{
		owner:         owner,
		notifications: notifications,
		subscriber:    subscriber,
		onUpdate:      onUpdate,
		logger:        log,
	}
}

// Start performs the initial fetch and subscribes to insert events.
func (r *NotificationRelay) Start(ctx context.Context) error {
	r.Refresh(ctx)

	unsub, err := r.subscriber.SubscribeNotifications(r.owner, func() {
		// The event payload is not trusted; re-fetch the view wholesale.
		r.Refresh(context.Background())
	})
	if err != nil {
		return err
	}
	r.unsub = unsub
	return nil
}

// Close tears down the subscription. Must pair with Start.
func (r *NotificationRelay) Close() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
}

// Refresh replaces the local view with the latest rows. On failure the
// prior view stays intact.
func (r *NotificationRelay) Refresh(ctx context.Context) {
	items, err := r.notifications.Latest(ctx, r.owner, relayLimit)
	if err != nil {
		r.logger.Error("notification refresh failed", "owner_id", r.owner, "error", err)
		return
	}

	r.mu.Lock()
	r.items = items
	r.mu.Unlock()

	if r.onUpdate != nil {
		r.onUpdate(items)
	}
}

// Notifications returns a copy of the local view.
func (r *NotificationRelay) Notifications() []model.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Notification, len(r.items))
	copy(out, r.items)
	return out
}

// ByType filters the local view without a store round-trip.
func (r *NotificationRelay) ByType(t model.NotificationType) []model.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Notification
	for _, n := range r.items {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount counts local rows with read == false.
func (r *NotificationRelay) UnreadCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return countUnread(r.items)
}

// MarkRead applies the local change first, then attempts the remote write.
// A remote failure is logged and the local state kept, an accepted bounded
// inconsistency window.
func (r *NotificationRelay) MarkRead(ctx context.Context, id string) {
	r.mu.Lock()
	for i := range r.items {
		if r.items[i].ID == id {
			r.items[i].Read = true
			break
		}
	}
	r.mu.Unlock()

	if err := r.notifications.MarkRead(ctx, r.owner, id); err != nil {
		r.logger.Error("remote mark-read failed", "notification_id", id, "error", err)
	}
}

// MarkAllRead is the bulk variant of MarkRead with the same two-phase
// semantics.
func (r *NotificationRelay) MarkAllRead(ctx context.Context) {
	r.mu.Lock()
	for i := range r.items {
		r.items[i].Read = true
	}
	r.mu.Unlock()

	if err := r.notifications.MarkAllRead(ctx, r.owner); err != nil {
		r.logger.Error("remote mark-all-read failed", "owner_id", r.owner, "error", err)
	}
}

func countUnread(items []model.Notification) int {
	count := 0
	for _, n := range items {
		if !n.Read {
			count++
		}
	}
	return count
}
