package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nextignition/network-api/pkg/logger"
)

func TestTyping_ExpiresAfterIdleWindow(t *testing.T) {
	pub := &fakePublisher{}
	tracker := NewPresenceTracker(pub, 30*time.Millisecond, logger.NewNop())
	defer tracker.Close()

	tracker.TypingStart("conv-1", "alice", "Alice")

	events := pub.typingEvents()
	require.Len(t, events, 1)
	assert.True(t, events[0].Typing)

	// No stop was sent; the idle timer fires on its own.
	require.Eventually(t, func() bool {
		events := pub.typingEvents()
		return len(events) == 2 && !events[1].Typing
	}, time.Second, 10*time.Millisecond)
}

func TestTyping_RearmWithoutRebroadcast(t *testing.T) {
	pub := &fakePublisher{}
	tracker := NewPresenceTracker(pub, 50*time.Millisecond, logger.NewNop())
	defer tracker.Close()

	tracker.TypingStart("conv-1", "alice", "Alice")
	time.Sleep(20 * time.Millisecond)
	tracker.TypingStart("conv-1", "alice", "Alice")
	time.Sleep(20 * time.Millisecond)
	tracker.TypingStart("conv-1", "alice", "Alice")

	// Repeated keystrokes only rearm the timer; one start on the wire.
	assert.Len(t, pub.typingEvents(), 1)

	require.Eventually(t, func() bool {
		events := pub.typingEvents()
		return len(events) == 2 && !events[1].Typing
	}, time.Second, 10*time.Millisecond)
}

func TestTyping_StopIsImmediate(t *testing.T) {
	pub := &fakePublisher{}
	tracker := NewPresenceTracker(pub, time.Hour, logger.NewNop())
	defer tracker.Close()

	tracker.TypingStart("conv-1", "alice", "Alice")
	tracker.TypingStop("conv-1", "alice", "Alice")

	events := pub.typingEvents()
	require.Len(t, events, 2)
	assert.False(t, events[1].Typing)

	// Stop without an active indicator is a no-op.
	tracker.TypingStop("conv-1", "alice", "Alice")
	assert.Len(t, pub.typingEvents(), 2)
}

func TestTyping_IndependentPerConversation(t *testing.T) {
	pub := &fakePublisher{}
	tracker := NewPresenceTracker(pub, time.Hour, logger.NewNop())
	defer tracker.Close()

	tracker.TypingStart("conv-1", "alice", "Alice")
	tracker.TypingStart("conv-2", "alice", "Alice")
	tracker.TypingStop("conv-1", "alice", "Alice")

	events := pub.typingEvents()
	require.Len(t, events, 3)
	assert.Equal(t, "conv-1", events[2].ConversationID)
	assert.False(t, events[2].Typing)

	tracker.TypingStop("conv-2", "alice", "Alice")
	assert.Len(t, pub.typingEvents(), 4)
}

func TestOnline_Refcounted(t *testing.T) {
	pub := &fakePublisher{}
	tracker := NewPresenceTracker(pub, time.Second, logger.NewNop())
	defer tracker.Close()

	assert.False(t, tracker.IsOnline("alice"))

	// Two tabs open, one closes: still online.
	tracker.SetOnline("alice")
	tracker.SetOnline("alice")
	tracker.SetOffline("alice")
	assert.True(t, tracker.IsOnline("alice"))

	tracker.SetOffline("alice")
	assert.False(t, tracker.IsOnline("alice"))

	// Exactly one online and one offline transition on the wire.
	events := pub.presenceEvents()
	require.Len(t, events, 2)
	assert.True(t, events[0].Online)
	assert.False(t, events[1].Online)
}
