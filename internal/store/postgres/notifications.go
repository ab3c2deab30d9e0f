package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextignition/network-api/internal/model"
)

type notificationRepo struct {
	db *pgxpool.Pool
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	var metadata []byte
	if n.Metadata != nil {
		b, err := json.Marshal(n.Metadata)
		if err != nil {
			return err
		}
		metadata = b
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO notifications (id, owner_id, type, title, body, read, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.OwnerID, string(n.Type), n.Title, n.Body, n.Read, metadata, n.CreatedAt)
	if err != nil {
		return translateError(err)
	}
	return nil
}

func (r *notificationRepo) Latest(ctx context.Context, ownerID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, type, title, body, read, metadata, created_at
		FROM notifications WHERE owner_id = $1
		ORDER BY created_at DESC LIMIT $2
	`, ownerID, limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		var n model.Notification
		var metadata []byte
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Type, &n.Title, &n.Body, &n.Read, &metadata, &n.CreatedAt); err != nil {
			return nil, translateError(err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
				return nil, err
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationRepo) MarkRead(ctx context.Context, ownerID, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, ownerID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notifications SET read = TRUE WHERE owner_id = $1 AND read = FALSE
	`, ownerID)
	if err != nil {
		return translateError(err)
	}
	return nil
}

func (r *notificationRepo) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM notifications WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}
