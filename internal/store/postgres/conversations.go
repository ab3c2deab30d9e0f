package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nextignition/network-api/internal/model"
)

type conversationRepo struct {
	db *pgxpool.Pool
}

const conversationColumns = `id, is_group, title, created_by, last_message, last_message_at, created_at, updated_at`

func scanConversation(row pgx.Row) (*model.Conversation, error) {
	var c model.Conversation
	var createdBy *string
	err := row.Scan(&c.ID, &c.IsGroup, &c.Title, &createdBy, &c.LastMessage,
		&c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, translateError(err)
	}
	if createdBy != nil {
		c.CreatedBy = *createdBy
	}
	return &c, nil
}

func (r *conversationRepo) Create(ctx context.Context, conv *model.Conversation, memberIDs []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var createdBy *string
	if conv.CreatedBy != "" {
		createdBy = &conv.CreatedBy
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO conversations (id, is_group, title, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, conv.ID, conv.IsGroup, conv.Title, createdBy, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return translateError(err)
	}

	now := time.Now().UTC()
	for _, id := range memberIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO conversation_members (conversation_id, identity_id, joined_at)
			VALUES ($1, $2, $3) ON CONFLICT DO NOTHING
		`, conv.ID, id, now)
		if err != nil {
			return translateError(err)
		}
	}
	return tx.Commit(ctx)
}

func (r *conversationRepo) Get(ctx context.Context, id string) (*model.Conversation, error) {
	q := `SELECT ` + conversationColumns + ` FROM conversations WHERE id = $1`
	return scanConversation(r.db.QueryRow(ctx, q, id))
}

func (r *conversationRepo) EnsureDirect(ctx context.Context, a, b string) (*model.Conversation, bool, error) {
	q := `
		SELECT ` + conversationColumns + ` FROM conversations c
		WHERE c.is_group = FALSE
		  AND EXISTS (SELECT 1 FROM conversation_members m WHERE m.conversation_id = c.id AND m.identity_id = $1)
		  AND EXISTS (SELECT 1 FROM conversation_members m WHERE m.conversation_id = c.id AND m.identity_id = $2)
	`
	conv, err := scanConversation(r.db.QueryRow(ctx, q, a, b))
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, false, err
	}

	now := time.Now().UTC()
	conv = &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		IsGroup:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Create(ctx, conv, []string{a, b}); err != nil {
		return nil, false, err
	}
	return conv, true, nil
}

func (r *conversationRepo) AddMember(ctx context.Context, conversationID, identityID string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversation_members (conversation_id, identity_id, joined_at)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING
	`, conversationID, identityID, time.Now().UTC())
	if err != nil {
		return translateError(err)
	}
	return nil
}

func (r *conversationRepo) IsMember(ctx context.Context, conversationID, identityID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM conversation_members WHERE conversation_id = $1 AND identity_id = $2)
	`, conversationID, identityID).Scan(&exists)
	if err != nil {
		return false, translateError(err)
	}
	return exists, nil
}

func (r *conversationRepo) Members(ctx context.Context, conversationID string) ([]model.ConversationMember, error) {
	rows, err := r.db.Query(ctx, `
		SELECT conversation_id, identity_id, unread_count, joined_at
		FROM conversation_members WHERE conversation_id = $1
	`, conversationID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var out []model.ConversationMember
	for rows.Next() {
		var m model.ConversationMember
		if err := rows.Scan(&m.ConversationID, &m.IdentityID, &m.UnreadCount, &m.JoinedAt); err != nil {
			return nil, translateError(err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *conversationRepo) ListForIdentity(ctx context.Context, identityID string) ([]model.Conversation, error) {
	q := `
		SELECT ` + conversationColumns + ` FROM conversations c
		JOIN conversation_members m ON m.conversation_id = c.id
		WHERE m.identity_id = $1
		ORDER BY c.updated_at DESC
	`
	rows, err := r.db.Query(ctx, q, identityID)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *conversationRepo) UnreadCount(ctx context.Context, conversationID, identityID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT unread_count FROM conversation_members WHERE conversation_id = $1 AND identity_id = $2
	`, conversationID, identityID).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, model.ErrNotMember
		}
		return 0, translateError(err)
	}
	return count, nil
}

// AppendMessage inserts the row, refreshes the conversation preview and
// bumps every other member's unread counter in one transaction.
func (r *conversationRepo) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt)
	if err != nil {
		return translateError(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE conversations SET last_message = $2, last_message_at = $3, updated_at = $3 WHERE id = $1
	`, msg.ConversationID, msg.Content, msg.CreatedAt)
	if err != nil {
		return translateError(err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE conversation_members SET unread_count = unread_count + 1
		WHERE conversation_id = $1 AND identity_id <> $2
	`, msg.ConversationID, msg.SenderID)
	if err != nil {
		return translateError(err)
	}

	return tx.Commit(ctx)
}

func (r *conversationRepo) Messages(ctx context.Context, conversationID string, limit int, before time.Time) ([]model.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `
		SELECT m.id, m.conversation_id, m.sender_id, p.name, m.content, m.created_at
		FROM messages m
		JOIN profiles p ON p.id = m.sender_id
		WHERE m.conversation_id = $1 AND ($2::timestamptz IS NULL OR m.created_at < $2)
		ORDER BY m.created_at DESC
		LIMIT $3
	`
	var beforeArg *time.Time
	if !before.IsZero() {
		beforeArg = &before
	}
	rows, err := r.db.Query(ctx, q, conversationID, beforeArg, limit)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.SenderName, &m.Content, &m.CreatedAt); err != nil {
			return nil, translateError(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Oldest first for rendering.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *conversationRepo) MarkRead(ctx context.Context, conversationID, identityID string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE conversation_members SET unread_count = 0
		WHERE conversation_id = $1 AND identity_id = $2
	`, conversationID, identityID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotMember
	}
	return nil
}

func (r *conversationRepo) CountDirect(ctx context.Context, identityID string) (int, error) {
	q := `
		SELECT COUNT(*) FROM conversations c
		JOIN conversation_members m ON m.conversation_id = c.id
		WHERE m.identity_id = $1 AND c.is_group = FALSE
	`
	var count int
	if err := r.db.QueryRow(ctx, q, identityID).Scan(&count); err != nil {
		return 0, translateError(err)
	}
	return count, nil
}
