package memory

import (
	"context"
	"sort"
	"time"

	"github.com/nextignition/network-api/internal/model"
)

type connectionRepo struct{ s *Store }

func (r *connectionRepo) Create(ctx context.Context, conn *model.Connection) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.connections {
		if existing.Status.Active() && sameUnorderedPair(existing, conn) {
			return model.ErrAlreadyConnected
		}
	}
	clone := *conn
	r.s.connections[conn.ID] = &clone
	return nil
}

func (r *connectionRepo) Get(ctx context.Context, id string) (*model.Connection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	conn, ok := r.s.connections[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	clone := *conn
	return &clone, nil
}

func (r *connectionRepo) UpdateStatus(ctx context.Context, id string, status model.ConnectionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	conn, ok := r.s.connections[id]
	if !ok {
		return model.ErrNotFound
	}
	conn.Status = status
	conn.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *connectionRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.connections[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.s.connections, id)
	return nil
}

func (r *connectionRepo) ActiveBetween(ctx context.Context, a, b string) (*model.Connection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, conn := range r.s.connections {
		if !conn.Status.Active() {
			continue
		}
		if (conn.RequesterID == a && conn.TargetID == b) || (conn.RequesterID == b && conn.TargetID == a) {
			clone := *conn
			return &clone, nil
		}
	}
	return nil, model.ErrNotFound
}

func (r *connectionRepo) ListAccepted(ctx context.Context, identityID string) ([]model.Connection, error) {
	return r.list(func(c *model.Connection) bool {
		return c.Status == model.ConnectionAccepted && c.Involves(identityID)
	})
}

func (r *connectionRepo) ListPendingReceived(ctx context.Context, identityID string) ([]model.Connection, error) {
	return r.list(func(c *model.Connection) bool {
		return c.Status == model.ConnectionPending && c.TargetID == identityID
	})
}

func (r *connectionRepo) ListPendingSent(ctx context.Context, identityID string) ([]model.Connection, error) {
	return r.list(func(c *model.Connection) bool {
		return c.Status == model.ConnectionPending && c.RequesterID == identityID
	})
}

func (r *connectionRepo) CountAccepted(ctx context.Context, identityID string) (int, error) {
	conns, err := r.ListAccepted(ctx, identityID)
	if err != nil {
		return 0, err
	}
	return len(conns), nil
}

func (r *connectionRepo) list(match func(*model.Connection) bool) ([]model.Connection, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []model.Connection
	for _, conn := range r.s.connections {
		if match(conn) {
			out = append(out, *conn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func sameUnorderedPair(a, b *model.Connection) bool {
	return (a.RequesterID == b.RequesterID && a.TargetID == b.TargetID) ||
		(a.RequesterID == b.TargetID && a.TargetID == b.RequesterID)
}
