package memory

import (
	"context"
	"sort"

	"github.com/nextignition/network-api/internal/model"
)

type notificationRepo struct{ s *Store }

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	clone := *n
	r.s.notifications[n.ID] = &clone
	return nil
}

func (r *notificationRepo) Latest(ctx context.Context, ownerID string, limit int) ([]model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []model.Notification
	for _, n := range r.s.notifications {
		if n.OwnerID == ownerID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.OwnerID != ownerID {
		return model.ErrNotFound
	}
	n.Read = true
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, ownerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, n := range r.s.notifications {
		if n.OwnerID == ownerID {
			n.Read = true
		}
	}
	return nil
}

func (r *notificationRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.OwnerID != ownerID {
		return model.ErrNotFound
	}
	delete(r.s.notifications, id)
	return nil
}
