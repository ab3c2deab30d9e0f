package service

import (
	"sync"
	"time"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/pkg/logger"
	"github.com/nextignition/network-api/pkg/metrics"
)

// DefaultTypingIdleTimeout is the inactivity window after which a typing
// indicator expires on its own.
const DefaultTypingIdleTimeout = 2 * time.Second

type typingKey struct {
	conversationID string
	identityID     string
}

// PresenceTracker owns ephemeral typing and online state. Typing indicators
// rearm on every keystroke and expire after the idle timeout; clearing the
// input or sending stops them immediately. Online state is refcounted so an
// identity with several open connections stays online until the last one
// drops.
type PresenceTracker struct {
	publisher Publisher
	logger    *logger.Logger
	idle      time.Duration

	mu     sync.Mutex
	typing map[typingKey]*time.Timer
	online map[string]int
}

// NewPresenceTracker creates a tracker. A non-positive idle timeout falls
// back to the default 2s window.
func NewPresenceTracker(publisher Publisher, idle time.Duration, log *logger.Logger) *PresenceTracker {
	if idle <= 0 {
		idle = DefaultTypingIdleTimeout
	}
	return &PresenceTracker{
		publisher: publisher,
		logger:    log,
		idle:      idle,
		typing:    make(map[typingKey]*time.Timer),
		online:    make(map[string]int),
	}
}

// TypingStart broadcasts a typing-start (first call only) and arms or
// rearms the idle timer.
func (t *PresenceTracker) TypingStart(conversationID, identityID, name string) {
	key := typingKey{conversationID, identityID}

	t.mu.Lock()
	timer, active := t.typing[key]
	if active {
		timer.Reset(t.idle)
		t.mu.Unlock()
		return
	}
	t.typing[key] = time.AfterFunc(t.idle, func() {
		t.expire(key, name)
	})
	t.mu.Unlock()

	t.broadcast(conversationID, identityID, name, true)
}

// TypingStop cancels the timer and broadcasts a typing-stop immediately.
// No-op when no indicator is active.
func (t *PresenceTracker) TypingStop(conversationID, identityID, name string) {
	key := typingKey{conversationID, identityID}

	t.mu.Lock()
	timer, active := t.typing[key]
	if active {
		timer.Stop()
		delete(t.typing, key)
	}
	t.mu.Unlock()

	if active {
		t.broadcast(conversationID, identityID, name, false)
	}
}

// expire fires when the idle window elapses without a rearm.
func (t *PresenceTracker) expire(key typingKey, name string) {
	t.mu.Lock()
	_, active := t.typing[key]
	if active {
		delete(t.typing, key)
	}
	t.mu.Unlock()

	if active {
		t.broadcast(key.conversationID, key.identityID, name, false)
	}
}

// SetOnline increments the identity's connection count, broadcasting the
// online transition on the first connection.
func (t *PresenceTracker) SetOnline(identityID string) {
	t.mu.Lock()
	t.online[identityID]++
	first := t.online[identityID] == 1
	t.mu.Unlock()

	if first {
		t.broadcastPresence(identityID, true)
	}
}

// SetOffline decrements the count, broadcasting the offline transition when
// the last connection drops.
func (t *PresenceTracker) SetOffline(identityID string) {
	t.mu.Lock()
	last := false
	if t.online[identityID] > 0 {
		t.online[identityID]--
		if t.online[identityID] == 0 {
			last = true
			delete(t.online, identityID)
		}
	}
	t.mu.Unlock()

	if last {
		t.broadcastPresence(identityID, false)
	}
}

// IsOnline reports whether the identity has at least one live connection.
func (t *PresenceTracker) IsOnline(identityID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online[identityID] > 0
}

// Close stops all pending timers without broadcasting.
func (t *PresenceTracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.typing {
		timer.Stop()
		delete(t.typing, key)
	}
}

func (t *PresenceTracker) broadcast(conversationID, identityID, name string, typing bool) {
	state := "stop"
	if typing {
		state = "start"
	}
	metrics.TypingEventsTotal.WithLabelValues(state).Inc()

	err := t.publisher.PublishTyping(&model.TypingEvent{
		ConversationID: conversationID,
		IdentityID:     identityID,
		Name:           name,
		Typing:         typing,
		Timestamp:      time.Now().UTC(),
	})
	if err != nil {
		t.logger.Error("failed to publish typing event",
			"conversation_id", conversationID, "error", err)
	}
}

func (t *PresenceTracker) broadcastPresence(identityID string, online bool) {
	err := t.publisher.PublishPresence(&model.PresenceEvent{
		IdentityID: identityID,
		Online:     online,
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		t.logger.Error("failed to publish presence event",
			"identity_id", identityID, "error", err)
	}
}
