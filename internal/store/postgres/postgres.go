// Package postgres implements the store interfaces on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/store"
)

// Store wraps a pgx connection pool and exposes repository views.
type Store struct {
	db *pgxpool.Pool
}

// New creates a store on an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// Connect opens a pool and verifies the connection.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.db.Close()
}

// Ping verifies the pool can still reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Profiles returns the profile repository view of the store.
func (s *Store) Profiles() store.ProfileRepository { return &profileRepo{s.db} }

// Connections returns the connection repository view of the store.
func (s *Store) Connections() store.ConnectionRepository { return &connectionRepo{s.db} }

// Conversations returns the conversation repository view of the store.
func (s *Store) Conversations() store.ConversationRepository { return &conversationRepo{s.db} }

// Notifications returns the notification repository view of the store.
func (s *Store) Notifications() store.NotificationRepository { return &notificationRepo{s.db} }

// Tokens returns the OAuth token repository view of the store.
func (s *Store) Tokens() store.TokenRepository { return &tokenRepo{s.db} }

// EnsureSchema creates tables, constraints and indexes. Idempotent. The
// partial unique index on the unordered connection pair is what enforces
// the one-active-edge invariant under concurrent requests from both sides.
func (s *Store) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			role TEXT NOT NULL,
			tier TEXT NOT NULL DEFAULT 'free',
			name TEXT NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			linkedin_url TEXT NOT NULL DEFAULT '',
			twitter_url TEXT NOT NULL DEFAULT '',
			website_url TEXT NOT NULL DEFAULT '',
			venture_name TEXT NOT NULL DEFAULT '',
			venture_stage TEXT NOT NULL DEFAULT '',
			investment_focus TEXT NOT NULL DEFAULT '',
			expertise TEXT NOT NULL DEFAULT '',
			hourly_rate INT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS connections (
			id UUID PRIMARY KEY,
			requester_id UUID NOT NULL REFERENCES profiles(id),
			target_id UUID NOT NULL REFERENCES profiles(id),
			status TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			CHECK (requester_id <> target_id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS connections_active_pair
			ON connections (LEAST(requester_id, target_id), GREATEST(requester_id, target_id))
			WHERE status IN ('pending', 'accepted')`,
		`CREATE INDEX IF NOT EXISTS connections_requester ON connections (requester_id, status)`,
		`CREATE INDEX IF NOT EXISTS connections_target ON connections (target_id, status)`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id UUID PRIMARY KEY,
			is_group BOOLEAN NOT NULL DEFAULT FALSE,
			title TEXT NOT NULL DEFAULT '',
			created_by UUID,
			last_message TEXT NOT NULL DEFAULT '',
			last_message_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_members (
			conversation_id UUID NOT NULL REFERENCES conversations(id),
			identity_id UUID NOT NULL REFERENCES profiles(id),
			unread_count INT NOT NULL DEFAULT 0,
			joined_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (conversation_id, identity_id)
		)`,
		`CREATE INDEX IF NOT EXISTS conversation_members_identity ON conversation_members (identity_id)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			conversation_id UUID NOT NULL REFERENCES conversations(id),
			sender_id UUID NOT NULL REFERENCES profiles(id),
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS messages_conversation ON messages (conversation_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL REFERENCES profiles(id),
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			read BOOLEAN NOT NULL DEFAULT FALSE,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS notifications_owner ON notifications (owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS calendar_tokens (
			identity_id UUID PRIMARY KEY REFERENCES profiles(id),
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}

// translateError maps pgx errors onto domain sentinels.
func translateError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return model.ErrAlreadyConnected
	}
	return err
}
