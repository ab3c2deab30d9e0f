package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextignition/network-api/internal/model"
)

type tokenRepo struct {
	db *pgxpool.Pool
}

// Upsert keeps at most one token row per identity.
func (r *tokenRepo) Upsert(ctx context.Context, token *model.CalendarToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO calendar_tokens (identity_id, access_token, refresh_token, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (identity_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = CASE WHEN EXCLUDED.refresh_token <> '' THEN EXCLUDED.refresh_token ELSE calendar_tokens.refresh_token END,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
	`, token.IdentityID, token.AccessToken, token.RefreshToken, token.ExpiresAt, time.Now().UTC())
	if err != nil {
		return translateError(err)
	}
	return nil
}

func (r *tokenRepo) Get(ctx context.Context, identityID string) (*model.CalendarToken, error) {
	var t model.CalendarToken
	err := r.db.QueryRow(ctx, `
		SELECT identity_id, access_token, refresh_token, expires_at, updated_at
		FROM calendar_tokens WHERE identity_id = $1
	`, identityID).Scan(&t.IdentityID, &t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	return &t, nil
}
