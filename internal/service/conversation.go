package service

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/permission"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/pkg/logger"
	"github.com/nextignition/network-api/pkg/metrics"
)

// OnlineChecker reports live online state for identities. The websocket hub
// implements it; a nil checker renders everyone offline.
type OnlineChecker interface {
	IsOnline(identityID string) bool
}

// ConversationService presents the union of explicit group conversations
// and implicit direct conversations, annotated with unread counts and
// presence.
type ConversationService struct {
	conversations store.ConversationRepository
	profiles      store.ProfileRepository
	notifier      *NotificationService
	publisher     Publisher
	online        OnlineChecker
	perms         permission.Resolver
	logger        *logger.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(
	conversations store.ConversationRepository,
	profiles store.ProfileRepository,
	notifier *NotificationService,
	publisher Publisher,
	perms permission.Resolver,
	log *logger.Logger,
) *ConversationService {
	return &ConversationService{
		conversations: conversations,
		profiles:      profiles,
		notifier:      notifier,
		publisher:     publisher,
		perms:         perms,
		logger:        log,
	}
}

// SetOnlineChecker wires the live presence source. Called once at startup;
// kept out of the constructor because the hub depends on this service.
func (s *ConversationService) SetOnlineChecker(checker OnlineChecker) {
	s.online = checker
}

// CreateGroup creates a group conversation with the creator plus the given
// members.
func (s *ConversationService) CreateGroup(ctx context.Context, creatorID, title string, memberIDs []string) (*model.Conversation, error) {
	creator, err := s.profiles.Get(ctx, creatorID)
	if err != nil {
		return nil, fmt.Errorf("creator lookup failed: %w", err)
	}
	if !s.perms.For(creator).CanCreateGroups {
		return nil, model.ErrForbidden
	}

	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		IsGroup:   true,
		Title:     title,
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	members := append([]string{creatorID}, memberIDs...)
	if err := s.conversations.Create(ctx, conv, dedupe(members)); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	s.logger.Info("group conversation created",
		"conversation_id", conv.ID, "created_by", creatorID, "members", len(members))
	return conv, nil
}

// EnsureDirect returns the direct conversation for an accepted pair,
// creating it if absent.
func (s *ConversationService) EnsureDirect(ctx context.Context, a, b string) (*model.Conversation, bool, error) {
	return s.conversations.EnsureDirect(ctx, a, b)
}

// List returns the caller's conversations with previews, unread counts,
// member summaries and online flags.
func (s *ConversationService) List(ctx context.Context, callerID string) (*model.ListConversationsResponse, error) {
	convs, err := s.conversations.ListForIdentity(ctx, callerID)
	if err != nil {
		return nil, err
	}

	views := make([]model.ConversationView, 0, len(convs))
	for _, conv := range convs {
		view, err := s.view(ctx, callerID, conv)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}

	return &model.ListConversationsResponse{
		Conversations: views,
		Total:         len(views),
	}, nil
}

// SendMessage appends a message to a conversation the sender belongs to,
// notifies the other members and broadcasts the row.
func (s *ConversationService) SendMessage(ctx context.Context, senderID, conversationID, content string) (*model.ChatMessage, error) {
	member, err := s.conversations.IsMember(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, model.ErrNotMember
	}

	sender, err := s.profiles.Get(ctx, senderID)
	if err != nil {
		sender = &model.Identity{ID: senderID}
	}

	msg := &model.ChatMessage{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderName:     sender.Name,
		Content:        content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.conversations.AppendMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to append message: %w", err)
	}

	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return msg, nil
	}

	kind := "direct"
	if conv.IsGroup {
		kind = "group"
	}
	metrics.MessagesTotal.WithLabelValues(kind).Inc()

	members, err := s.conversations.Members(ctx, conversationID)
	if err != nil {
		s.logger.Error("failed to load members for notify",
			"conversation_id", conversationID, "error", err)
		return msg, nil
	}
	for _, m := range members {
		if m.IdentityID == senderID {
			continue
		}
		_, err := s.notifier.Create(ctx, &model.Notification{
			OwnerID: m.IdentityID,
			Type:    model.NotificationMessage,
			Title:   fmt.Sprintf("New message from %s", sender.Name),
			Body:    preview(content),
			Metadata: map[string]any{
				"conversation_id": conversationID,
				"message_id":      msg.ID,
			},
		})
		if err != nil {
			s.logger.Error("failed to create message notification",
				"owner_id", m.IdentityID, "error", err)
		}
	}

	return msg, nil
}

// Messages returns up to limit messages, oldest first, optionally before a
// timestamp for paging backwards.
func (s *ConversationService) Messages(ctx context.Context, callerID, conversationID string, limit int, before time.Time) (*model.ListMessagesResponse, error) {
	member, err := s.conversations.IsMember(ctx, conversationID, callerID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, model.ErrNotMember
	}

	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	msgs, err := s.conversations.Messages(ctx, conversationID, limit, before)
	if err != nil {
		return nil, err
	}
	return &model.ListMessagesResponse{
		Messages: msgs,
		HasMore:  len(msgs) == limit,
	}, nil
}

// MarkRead clears the caller's unread counter for a conversation. No
// cascade to notification read flags.
func (s *ConversationService) MarkRead(ctx context.Context, callerID, conversationID string) error {
	return s.conversations.MarkRead(ctx, conversationID, callerID)
}

// CountDirect counts the identity's direct conversations for stats.
func (s *ConversationService) CountDirect(ctx context.Context, identityID string) (int, error) {
	return s.conversations.CountDirect(ctx, identityID)
}

func (s *ConversationService) view(ctx context.Context, callerID string, conv model.Conversation) (*model.ConversationView, error) {
	members, err := s.conversations.Members(ctx, conv.ID)
	if err != nil {
		return nil, err
	}

	view := &model.ConversationView{Conversation: conv}
	view.Online = make(map[string]bool)
	for _, m := range members {
		if m.IdentityID == callerID {
			view.UnreadCount = m.UnreadCount
			continue
		}
		if profile, err := s.profiles.Get(ctx, m.IdentityID); err == nil {
			view.Members = append(view.Members, profile.Summary())
		} else {
			view.Members = append(view.Members, model.IdentitySummary{ID: m.IdentityID})
		}
		if s.online != nil {
			view.Online[m.IdentityID] = s.online.IsOnline(m.IdentityID)
		}
	}
	return view, nil
}

func preview(content string) string {
	const max = 120
	if len(content) <= max {
		return content
	}
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	cut := max
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "…"
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
