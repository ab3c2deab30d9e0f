package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nextignition/network-api/internal/model"
)

type conversationRepo struct{ s *Store }

func (r *conversationRepo) Create(ctx context.Context, conv *model.Conversation, memberIDs []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	clone := *conv
	r.s.conversations[conv.ID] = &clone
	now := time.Now().UTC()
	for _, id := range memberIDs {
		r.s.members[conv.ID] = append(r.s.members[conv.ID], &model.ConversationMember{
			ConversationID: conv.ID,
			IdentityID:     id,
			JoinedAt:       now,
		})
	}
	return nil
}

func (r *conversationRepo) Get(ctx context.Context, id string) (*model.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	conv, ok := r.s.conversations[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	clone := *conv
	return &clone, nil
}

func (r *conversationRepo) EnsureDirect(ctx context.Context, a, b string) (*model.Conversation, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, conv := range r.s.conversations {
		if conv.IsGroup {
			continue
		}
		members := r.s.members[id]
		if len(members) != 2 {
			continue
		}
		if (members[0].IdentityID == a && members[1].IdentityID == b) ||
			(members[0].IdentityID == b && members[1].IdentityID == a) {
			clone := *conv
			return &clone, false, nil
		}
	}

	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		IsGroup:   false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.s.conversations[conv.ID] = conv
	for _, id := range []string{a, b} {
		r.s.members[conv.ID] = append(r.s.members[conv.ID], &model.ConversationMember{
			ConversationID: conv.ID,
			IdentityID:     id,
			JoinedAt:       now,
		})
	}
	clone := *conv
	return &clone, true, nil
}

func (r *conversationRepo) AddMember(ctx context.Context, conversationID, identityID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.conversations[conversationID]; !ok {
		return model.ErrNotFound
	}
	for _, m := range r.s.members[conversationID] {
		if m.IdentityID == identityID {
			return nil
		}
	}
	r.s.members[conversationID] = append(r.s.members[conversationID], &model.ConversationMember{
		ConversationID: conversationID,
		IdentityID:     identityID,
		JoinedAt:       time.Now().UTC(),
	})
	return nil
}

func (r *conversationRepo) IsMember(ctx context.Context, conversationID, identityID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.members[conversationID] {
		if m.IdentityID == identityID {
			return true, nil
		}
	}
	return false, nil
}

func (r *conversationRepo) Members(ctx context.Context, conversationID string) ([]model.ConversationMember, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	members := r.s.members[conversationID]
	out := make([]model.ConversationMember, 0, len(members))
	for _, m := range members {
		out = append(out, *m)
	}
	return out, nil
}

func (r *conversationRepo) ListForIdentity(ctx context.Context, identityID string) ([]model.Conversation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []model.Conversation
	for id, conv := range r.s.conversations {
		for _, m := range r.s.members[id] {
			if m.IdentityID == identityID {
				out = append(out, *conv)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *conversationRepo) UnreadCount(ctx context.Context, conversationID, identityID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, m := range r.s.members[conversationID] {
		if m.IdentityID == identityID {
			return m.UnreadCount, nil
		}
	}
	return 0, model.ErrNotMember
}

func (r *conversationRepo) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	conv, ok := r.s.conversations[msg.ConversationID]
	if !ok {
		return model.ErrNotFound
	}

	clone := *msg
	r.s.messages[msg.ConversationID] = append(r.s.messages[msg.ConversationID], &clone)

	now := msg.CreatedAt
	conv.LastMessage = msg.Content
	conv.LastMessageAt = &now
	conv.UpdatedAt = now

	for _, m := range r.s.members[msg.ConversationID] {
		if m.IdentityID != msg.SenderID {
			m.UnreadCount++
		}
	}
	return nil
}

func (r *conversationRepo) Messages(ctx context.Context, conversationID string, limit int, before time.Time) ([]model.ChatMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []model.ChatMessage
	for _, m := range r.s.messages[conversationID] {
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *conversationRepo) MarkRead(ctx context.Context, conversationID, identityID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, m := range r.s.members[conversationID] {
		if m.IdentityID == identityID {
			m.UnreadCount = 0
			return nil
		}
	}
	return model.ErrNotMember
}

func (r *conversationRepo) CountDirect(ctx context.Context, identityID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for id, conv := range r.s.conversations {
		if conv.IsGroup {
			continue
		}
		for _, m := range r.s.members[id] {
			if m.IdentityID == identityID {
				count++
				break
			}
		}
	}
	return count, nil
}
