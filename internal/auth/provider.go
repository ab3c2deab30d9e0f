// Package auth adapts the external identity platform to the session
// interface the application consumes. Sessions are issued elsewhere; this
// adapter asks the platform for the current one over NATS request/reply and
// relays change signals.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/pkg/logger"
)

const (
	// CurrentSubject is the request/reply subject answering with the
	// process's current session. An empty payload means signed out.
	CurrentSubject = "auth.session.current"

	// ChangedSubject carries session-change broadcasts. An empty payload
	// means sign-out.
	ChangedSubject = "auth.session.changed"

	requestTimeout = 2 * time.Second
)

// Conn is the slice of the NATS connection the provider uses.
type Conn interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// SessionProvider implements service.AuthProvider over the bus.
type SessionProvider struct {
	conn   Conn
	logger *logger.Logger
}

// NewSessionProvider creates a provider on an established connection.
func NewSessionProvider(conn Conn, log *logger.Logger) *SessionProvider {
	return &SessionProvider{conn: conn, logger: log}
}

// CurrentSession asks the identity platform for the active session. A
// missing or unresponsive platform reads as signed out, not as a failure.
func (p *SessionProvider) CurrentSession(ctx context.Context) (*model.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	msg, err := p.conn.RequestWithContext(ctx, CurrentSubject, nil)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) || errors.Is(err, nats.ErrTimeout) ||
			errors.Is(err, context.DeadlineExceeded) {
			return nil, model.ErrNoSession
		}
		return nil, fmt.Errorf("session lookup failed: %w", err)
	}
	return decodeSession(msg.Data)
}

// OnSessionChange relays session-change broadcasts. Undecodable payloads
// are delivered as sign-out; a stale session is worse than none.
func (p *SessionProvider) OnSessionChange(handler func(*model.Session)) (func(), error) {
	sub, err := p.conn.Subscribe(ChangedSubject, func(msg *nats.Msg) {
		session, err := decodeSession(msg.Data)
		if err != nil && !errors.Is(err, model.ErrNoSession) {
			p.logger.Warn("dropping undecodable session change", "error", err)
		}
		handler(session)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func decodeSession(data []byte) (*model.Session, error) {
	if len(data) == 0 {
		return nil, model.ErrNoSession
	}
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if session.IdentityID == "" {
		return nil, model.ErrNoSession
	}
	return &session, nil
}
