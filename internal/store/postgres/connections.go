package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextignition/network-api/internal/model"
)

type connectionRepo struct {
	db *pgxpool.Pool
}

const connectionColumns = `id, requester_id, target_id, status, message, created_at, updated_at`

func scanConnection(row pgx.Row) (*model.Connection, error) {
	var c model.Connection
	err := row.Scan(&c.ID, &c.RequesterID, &c.TargetID, &c.Status, &c.Message,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &c, nil
}

// Create inserts a pending edge. The partial unique index on the unordered
// pair turns a concurrent duplicate into model.ErrAlreadyConnected.
func (r *connectionRepo) Create(ctx context.Context, conn *model.Connection) error {
	q := `
		INSERT INTO connections (id, requester_id, target_id, status, message, created_at, updated_at)
		VALUES (@id, @requester_id, @target_id, @status, @message, @created_at, @updated_at)
	`
	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":           conn.ID,
		"requester_id": conn.RequesterID,
		"target_id":    conn.TargetID,
		"status":       string(conn.Status),
		"message":      conn.Message,
		"created_at":   conn.CreatedAt,
		"updated_at":   conn.UpdatedAt,
	})
	if err != nil {
		return translateError(err)
	}
	return nil
}

func (r *connectionRepo) Get(ctx context.Context, id string) (*model.Connection, error) {
	q := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`
	return scanConnection(r.db.QueryRow(ctx, q, id))
}

func (r *connectionRepo) UpdateStatus(ctx context.Context, id string, status model.ConnectionStatus) error {
	q := `UPDATE connections SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, id, string(status), time.Now().UTC())
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *connectionRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM connections WHERE id = $1`, id)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *connectionRepo) ActiveBetween(ctx context.Context, a, b string) (*model.Connection, error) {
	q := `
		SELECT ` + connectionColumns + ` FROM connections
		WHERE status IN ('pending', 'accepted')
		  AND ((requester_id = $1 AND target_id = $2) OR (requester_id = $2 AND target_id = $1))
	`
	return scanConnection(r.db.QueryRow(ctx, q, a, b))
}

func (r *connectionRepo) ListAccepted(ctx context.Context, identityID string) ([]model.Connection, error) {
	q := `
		SELECT ` + connectionColumns + ` FROM connections
		WHERE status = 'accepted' AND (requester_id = $1 OR target_id = $1)
		ORDER BY created_at DESC
	`
	return r.list(ctx, q, identityID)
}

func (r *connectionRepo) ListPendingReceived(ctx context.Context, identityID string) ([]model.Connection, error) {
	q := `
		SELECT ` + connectionColumns + ` FROM connections
		WHERE status = 'pending' AND target_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, q, identityID)
}

func (r *connectionRepo) ListPendingSent(ctx context.Context, identityID string) ([]model.Connection, error) {
	q := `
		SELECT ` + connectionColumns + ` FROM connections
		WHERE status = 'pending' AND requester_id = $1
		ORDER BY created_at DESC
	`
	return r.list(ctx, q, identityID)
}

func (r *connectionRepo) CountAccepted(ctx context.Context, identityID string) (int, error) {
	q := `
		SELECT COUNT(*) FROM connections
		WHERE status = 'accepted' AND (requester_id = $1 OR target_id = $1)
	`
	var count int
	if err := r.db.QueryRow(ctx, q, identityID).Scan(&count); err != nil {
		return 0, translateError(err)
	}
	return count, nil
}

func (r *connectionRepo) list(ctx context.Context, q, identityID string) ([]model.Connection, error) {
	rows, err := r.db.Query(ctx, q, identityID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var out []model.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
