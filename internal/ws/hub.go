// Package ws carries the realtime chat surface: one hub fanning chat
// messages, typing signals and presence transitions out to connected
// clients.
package ws

import (
	"context"
	"encoding/json"

	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/service"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/pkg/logger"
	"github.com/nextignition/network-api/pkg/metrics"
)

// Frame is the envelope exchanged over the socket in both directions.
type Frame struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Content        string          `json:"content,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// Inbound frame types.
const (
	FrameChatMessage = "chat_message"
	FrameTypingStart = "typing_start"
	FrameTypingStop  = "typing_stop"
	FrameMarkRead    = "mark_read"
)

// Outbound frame types.
const (
	FrameMessage  = "message"
	FrameTyping   = "typing"
	FramePresence = "presence"
	FrameError    = "error"
)

type inbound struct {
	client *Client
	frame  Frame
}

// Subscriber is the slice of the event bus the hub listens on.
type Subscriber interface {
	SubscribeTyping(conversationID string, handler func(model.TypingEvent)) (func(), error)
	SubscribePresence(handler func(model.PresenceEvent)) (func(), error)
}

// Hub owns the set of live websocket clients, routes their inbound frames
// into the services and fans bus events back out. One hub per process.
type Hub struct {
	conversations *service.ConversationService
	members       store.ConversationRepository
	presence      *service.PresenceTracker
	subscriber    Subscriber
	logger        *logger.Logger

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	typing     chan model.TypingEvent
	presences  chan model.PresenceEvent
	done       chan struct{}

	// clients is owned by the run loop; nothing else may touch it.
	clients map[string]map[*Client]bool

	unsubs []func()
}

// NewHub creates a hub.
func NewHub(
	conversations *service.ConversationService,
	members store.ConversationRepository,
	presence *service.PresenceTracker,
	subscriber Subscriber,
	log *logger.Logger,
) *Hub {
	return &Hub{
		conversations: conversations,
		members:       members,
		presence:      presence,
		subscriber:    subscriber,
		logger:        log,
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		inbound:       make(chan inbound, 64),
		typing:        make(chan model.TypingEvent, 64),
		presences:     make(chan model.PresenceEvent, 64),
		done:          make(chan struct{}),
		clients:       make(map[string]map[*Client]bool),
	}
}

// Start subscribes to the typing and presence subjects and launches the
// routing loop.
func (h *Hub) Start(ctx context.Context) error {
	if h.subscriber != nil {
		// Bus handlers run on NATS delivery goroutines; they hand the event
		// to the run loop instead of touching the clients map themselves.
		// Both signals are ephemeral, so a full channel drops the event.
		unsub, err := h.subscriber.SubscribeTyping("*", func(ev model.TypingEvent) {
			select {
			case h.typing <- ev:
			default:
			}
		})
		if err != nil {
			return err
		}
		h.unsubs = append(h.unsubs, unsub)

		unsub, err = h.subscriber.SubscribePresence(func(ev model.PresenceEvent) {
			select {
			case h.presences <- ev:
			default:
			}
		})
		if err != nil {
			return err
		}
		h.unsubs = append(h.unsubs, unsub)
	}

	go h.run(ctx)
	return nil
}

// Close tears down subscriptions and stops the routing loop. Clients drain
// on their own when their sockets close.
func (h *Hub) Close() {
	for _, unsub := range h.unsubs {
		unsub()
	}
	h.unsubs = nil
	close(h.done)
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			if h.clients[client.identityID] == nil {
				h.clients[client.identityID] = make(map[*Client]bool)
			}
			h.clients[client.identityID][client] = true
			metrics.WSConnectionsActive.Inc()
			h.presence.SetOnline(client.identityID)

		case client := <-h.unregister:
			set := h.clients[client.identityID]
			if set == nil || !set[client] {
				continue
			}
			delete(set, client)
			if len(set) == 0 {
				delete(h.clients, client.identityID)
			}
			close(client.send)
			metrics.WSConnectionsActive.Dec()
			h.presence.SetOffline(client.identityID)

		case in := <-h.inbound:
			h.route(ctx, in)

		case ev := <-h.typing:
			h.fanOutTyping(ctx, ev)

		case ev := <-h.presences:
			h.broadcast(FramePresence, ev)
		}
	}
}

func (h *Hub) route(ctx context.Context, in inbound) {
	frame := in.frame
	client := in.client

	switch frame.Type {
	case FrameChatMessage:
		msg, err := h.conversations.SendMessage(ctx, client.identityID, frame.ConversationID, frame.Content)
		if err != nil {
			h.sendError(client, "send_failed", err)
			return
		}
		// A send implies the author is no longer composing.
		h.presence.TypingStop(frame.ConversationID, client.identityID, client.name)
		h.fanOutMessage(ctx, msg)

	case FrameTypingStart:
		h.presence.TypingStart(frame.ConversationID, client.identityID, client.name)

	case FrameTypingStop:
		h.presence.TypingStop(frame.ConversationID, client.identityID, client.name)

	case FrameMarkRead:
		if err := h.conversations.MarkRead(ctx, client.identityID, frame.ConversationID); err != nil {
			h.sendError(client, "mark_read_failed", err)
		}

	default:
		h.sendError(client, "unknown_frame", nil)
	}
}

// fanOutMessage delivers a persisted message to every connected member of
// its conversation, sender included so their other tabs stay in sync.
func (h *Hub) fanOutMessage(ctx context.Context, msg *model.ChatMessage) {
	members, err := h.members.Members(ctx, msg.ConversationID)
	if err != nil {
		h.logger.Error("failed to load members for fan-out",
			"conversation_id", msg.ConversationID, "error", err)
		return
	}
	for _, m := range members {
		h.deliver(m.IdentityID, FrameMessage, msg)
	}
}

// fanOutTyping delivers a typing signal to members other than the typist.
func (h *Hub) fanOutTyping(ctx context.Context, ev model.TypingEvent) {
	members, err := h.members.Members(ctx, ev.ConversationID)
	if err != nil {
		return
	}
	for _, m := range members {
		if m.IdentityID == ev.IdentityID {
			continue
		}
		h.deliver(m.IdentityID, FrameTyping, ev)
	}
}

// deliver sends one payload to every socket the identity has open. Called
// from the run loop only.
func (h *Hub) deliver(identityID, frameType string, payload interface{}) {
	set := h.clients[identityID]
	if len(set) == 0 {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	out, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		return
	}
	for client := range set {
		select {
		case client.send <- out:
		default:
			// Slow consumer; drop the frame rather than block the hub.
			// The write pump reaps dead sockets on its own.
		}
	}
}

func (h *Hub) broadcast(frameType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	out, err := json.Marshal(Frame{Type: frameType, Data: data})
	if err != nil {
		return
	}
	for _, set := range h.clients {
		for client := range set {
			select {
			case client.send <- out:
			default:
			}
		}
	}
}

func (h *Hub) sendError(client *Client, code string, err error) {
	ev := model.ErrorEvent{Code: code}
	if err != nil {
		ev.Message = err.Error()
	}
	data, merr := json.Marshal(ev)
	if merr != nil {
		return
	}
	out, merr := json.Marshal(Frame{Type: FrameError, Data: data})
	if merr != nil {
		return
	}
	select {
	case client.send <- out:
	default:
	}
}
