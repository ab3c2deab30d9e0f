package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/permission"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/pkg/logger"
	"github.com/nextignition/network-api/pkg/metrics"
)

// ConnectionService maintains the request/accept/reject/block state machine
// between pairs of identities.
type ConnectionService struct {
	connections   store.ConnectionRepository
	profiles      store.ProfileRepository
	conversations *ConversationService
	notifier      *NotificationService
	publisher     Publisher
	perms         permission.Resolver
	logger        *logger.Logger
}

// NewConnectionService creates a new connection service.
func NewConnectionService(
	connections store.ConnectionRepository,
	profiles store.ProfileRepository,
	conversations *ConversationService,
	notifier *NotificationService,
	publisher Publisher,
	perms permission.Resolver,
	log *logger.Logger,
) *ConnectionService {
	return &ConnectionService{
		connections:   connections,
		profiles:      profiles,
		conversations: conversations,
		notifier:      notifier,
		publisher:     publisher,
		perms:         perms,
		logger:        log,
	}
}

// SendRequest creates a pending edge requester -> target. Self-requests are
// refused, and at most one active edge may exist per unordered pair.
func (s *ConnectionService) SendRequest(ctx context.Context, requesterID, targetID, message string) (*model.Connection, error) {
	if requesterID == targetID {
		return nil, model.ErrSelfConnection
	}

	requester, err := s.profiles.Get(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("requester lookup failed: %w", err)
	}

	set := s.perms.For(requester)
	if !set.CanSendConnectionRequests {
		return nil, model.ErrForbidden
	}
	if set.MaxPendingRequests > 0 {
		sent, err := s.connections.ListPendingSent(ctx, requesterID)
		if err != nil {
			return nil, fmt.Errorf("pending count failed: %w", err)
		}
		if len(sent) >= set.MaxPendingRequests {
			return nil, model.ErrPendingLimit
		}
	}

	target, err := s.profiles.Get(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("target lookup failed: %w", err)
	}

	if _, err := s.connections.ActiveBetween(ctx, requesterID, targetID); err == nil {
		return nil, model.ErrAlreadyConnected
	} else if !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("pair lookup failed: %w", err)
	}

	now := time.Now().UTC()
	conn := &model.Connection{
		ID:          uuid.Must(uuid.NewV7()).String(),
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      model.ConnectionPending,
		Message:     message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	// The store-level uniqueness constraint closes the race between the
	// check above and this insert.
	if err := s.connections.Create(ctx, conn); err != nil {
		return nil, err
	}

	s.emit(ctx, conn, model.ConnectionActionRequested, requesterID, targetID)
	s.notify(ctx, targetID, "New connection request",
		fmt.Sprintf("%s wants to connect with you", requester.Name), conn)

	s.logger.Info("connection requested",
		"connection_id", conn.ID, "requester_id", requesterID, "target_id", target.ID)
	metrics.ConnectionTransitionsTotal.WithLabelValues(string(model.ConnectionActionRequested)).Inc()

	return conn, nil
}

// Accept transitions a pending edge to accepted. Only the target may
// accept. Acceptance ensures the pair's direct conversation exists.
func (s *ConnectionService) Accept(ctx context.Context, callerID, connectionID string) (*model.Connection, error) {
	conn, err := s.pendingFor(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.TargetID != callerID {
		return nil, model.ErrForbidden
	}

	if err := s.connections.UpdateStatus(ctx, connectionID, model.ConnectionAccepted); err != nil {
		return nil, err
	}
	conn.Status = model.ConnectionAccepted
	conn.UpdatedAt = time.Now().UTC()

	// The accepted pair gets its direct conversation up front so it shows
	// in both parties' chat lists immediately.
	if _, _, err := s.conversations.EnsureDirect(ctx, conn.RequesterID, conn.TargetID); err != nil {
		s.logger.Error("failed to ensure direct conversation",
			"connection_id", connectionID, "error", err)
	}

	accepter, err := s.profiles.Get(ctx, callerID)
	if err != nil {
		accepter = &model.Identity{ID: callerID}
	}

	s.emit(ctx, conn, model.ConnectionActionAccepted, callerID, conn.RequesterID)
	s.notify(ctx, conn.RequesterID, "Connection accepted",
		fmt.Sprintf("%s accepted your connection request", accepter.Name), conn)

	s.logger.Info("connection accepted", "connection_id", connectionID, "target_id", callerID)
	metrics.ConnectionTransitionsTotal.WithLabelValues(string(model.ConnectionActionAccepted)).Inc()

	return conn, nil
}

// Reject transitions a pending edge to rejected. Only the target may
// reject. The edge stays in the store as history.
func (s *ConnectionService) Reject(ctx context.Context, callerID, connectionID string) error {
	conn, err := s.pendingFor(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn.TargetID != callerID {
		return model.ErrForbidden
	}

	if err := s.connections.UpdateStatus(ctx, connectionID, model.ConnectionRejected); err != nil {
		return err
	}

	s.emit(ctx, conn, model.ConnectionActionRejected, callerID, conn.RequesterID)
	metrics.ConnectionTransitionsTotal.WithLabelValues(string(model.ConnectionActionRejected)).Inc()
	return nil
}

// Block transitions an edge to blocked. Only the target may block. Blocked
// edges are excluded from every count and status derivation.
func (s *ConnectionService) Block(ctx context.Context, callerID, connectionID string) error {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn.TargetID != callerID {
		return model.ErrForbidden
	}

	if err := s.connections.UpdateStatus(ctx, connectionID, model.ConnectionBlocked); err != nil {
		return err
	}

	s.emit(ctx, conn, model.ConnectionActionBlocked, callerID, conn.RequesterID)
	metrics.ConnectionTransitionsTotal.WithLabelValues(string(model.ConnectionActionBlocked)).Inc()
	return nil
}

// Cancel deletes a still-pending edge. Only the requester may cancel, and
// the pair returns to "none".
func (s *ConnectionService) Cancel(ctx context.Context, callerID, connectionID string) error {
	conn, err := s.pendingFor(ctx, connectionID)
	if err != nil {
		return err
	}
	if conn.RequesterID != callerID {
		return model.ErrForbidden
	}

	if err := s.connections.Delete(ctx, connectionID); err != nil {
		return err
	}

	s.emit(ctx, conn, model.ConnectionActionCancelled, callerID, conn.TargetID)
	metrics.ConnectionTransitionsTotal.WithLabelValues(string(model.ConnectionActionCancelled)).Inc()
	return nil
}

// Status derives the relationship label from the caller's point of view:
// pending-received reports "pending", pending-sent reports "sent".
func (s *ConnectionService) Status(ctx context.Context, callerID, counterpartID string) (model.RelationshipStatus, error) {
	conn, err := s.connections.ActiveBetween(ctx, callerID, counterpartID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.RelationshipNone, nil
		}
		return "", err
	}

	switch conn.Status {
	case model.ConnectionAccepted:
		return model.RelationshipAccepted, nil
	case model.ConnectionPending:
		if conn.RequesterID == callerID {
			return model.RelationshipSent, nil
		}
		return model.RelationshipPending, nil
	}
	return model.RelationshipNone, nil
}

// Connections lists the caller's accepted connections with counterpart
// profile summaries.
func (s *ConnectionService) Connections(ctx context.Context, callerID string) ([]model.ConnectionView, error) {
	conns, err := s.connections.ListAccepted(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.withCounterparts(ctx, callerID, conns), nil
}

// PendingReceived lists pending requests where the caller is the target.
func (s *ConnectionService) PendingReceived(ctx context.Context, callerID string) ([]model.ConnectionView, error) {
	conns, err := s.connections.ListPendingReceived(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.withCounterparts(ctx, callerID, conns), nil
}

// PendingSent lists pending requests the caller has sent.
func (s *ConnectionService) PendingSent(ctx context.Context, callerID string) ([]model.ConnectionView, error) {
	conns, err := s.connections.ListPendingSent(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return s.withCounterparts(ctx, callerID, conns), nil
}

// Stats aggregates the dashboard counters for one identity. Group channels
// never count toward TotalChats.
func (s *ConnectionService) Stats(ctx context.Context, callerID string) (*model.NetworkStats, error) {
	accepted, err := s.connections.CountAccepted(ctx, callerID)
	if err != nil {
		return nil, err
	}
	received, err := s.connections.ListPendingReceived(ctx, callerID)
	if err != nil {
		return nil, err
	}
	sent, err := s.connections.ListPendingSent(ctx, callerID)
	if err != nil {
		return nil, err
	}
	chats, err := s.conversations.CountDirect(ctx, callerID)
	if err != nil {
		return nil, err
	}

	return &model.NetworkStats{
		TotalConnections: accepted,
		PendingReceived:  len(received),
		PendingSent:      len(sent),
		TotalChats:       chats,
	}, nil
}

func (s *ConnectionService) pendingFor(ctx context.Context, connectionID string) (*model.Connection, error) {
	conn, err := s.connections.Get(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.Status != model.ConnectionPending {
		return nil, model.ErrNotPending
	}
	return conn, nil
}

func (s *ConnectionService) withCounterparts(ctx context.Context, callerID string, conns []model.Connection) []model.ConnectionView {
	views := make([]model.ConnectionView, 0, len(conns))
	for _, conn := range conns {
		view := model.ConnectionView{Connection: conn}
		if profile, err := s.profiles.Get(ctx, conn.Counterpart(callerID)); err == nil {
			view.Counterpart = profile.Summary()
		}
		views = append(views, view)
	}
	return views
}

// emit publishes the lifecycle event; failures are logged, never surfaced.
func (s *ConnectionService) emit(ctx context.Context, conn *model.Connection, action model.ConnectionAction, actorID, recipientID string) {
	ev := &model.ConnectionEvent{
		ID:           uuid.Must(uuid.NewV7()).String(),
		ConnectionID: conn.ID,
		Action:       action,
		ActorID:      actorID,
		RecipientID:  recipientID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.publisher.PublishConnectionEvent(ctx, ev); err != nil {
		s.logger.Error("failed to publish connection event",
			"connection_id", conn.ID, "action", action, "error", err)
	}
}

func (s *ConnectionService) notify(ctx context.Context, ownerID, title, body string, conn *model.Connection) {
	_, err := s.notifier.Create(ctx, &model.Notification{
		OwnerID: ownerID,
		Type:    model.NotificationConnection,
		Title:   title,
		Body:    body,
		Metadata: map[string]any{
			"connection_id": conn.ID,
			"requester_id":  conn.RequesterID,
		},
	})
	if err != nil {
		s.logger.Error("failed to create connection notification",
			"owner_id", ownerID, "error", err)
	}
}
