package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nextignition/network-api/internal/middleware"
	"github.com/nextignition/network-api/internal/model"
	"github.com/nextignition/network-api/internal/service"
	"github.com/nextignition/network-api/internal/store"
	"github.com/nextignition/network-api/pkg/logger"
	"github.com/nextignition/network-api/pkg/metrics"
)

// EventSource is the slice of the event bus the SSE stream listens on.
type EventSource interface {
	SubscribeNotifications(ownerID string, handler func()) (func(), error)
	SubscribeConnectionEvents(identityID string, handler func(model.ConnectionEvent)) (func(), error)
}

// EventsHandler serves the per-identity SSE stream: a notification snapshot
// on every insert, connection lifecycle events and heartbeats.
type EventsHandler struct {
	notifications store.NotificationRepository
	source        EventSource
	logger        *logger.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(notifications store.NotificationRepository, source EventSource, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		notifications: notifications,
		source:        source,
		logger:        log,
	}
}

type sseEvent struct {
	name string
	data interface{}
}

type notificationSnapshot struct {
	Notifications []model.Notification `json:"notifications"`
	UnreadCount   int                  `json:"unread_count"`
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID := middleware.GetIdentityID(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	// Single writer loop; bus callbacks land on this channel.
	events := make(chan sseEvent, 16)

	relay := service.NewNotificationRelay(identityID, h.notifications, h.source,
		func(items []model.Notification) {
			snapshot := notificationSnapshot{Notifications: items}
			for _, n := range items {
				if !n.Read {
					snapshot.UnreadCount++
				}
			}
			select {
			case events <- sseEvent{name: "notifications", data: snapshot}:
			default:
				// Client is far behind; the next insert re-sends the full view.
			}
		},
		h.logger,
	)
	if err := relay.Start(ctx); err != nil {
		h.logger.Error("failed to start notification relay",
			"identity_id", identityID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	defer relay.Close()

	unsubConn, err := h.source.SubscribeConnectionEvents(identityID, func(ev model.ConnectionEvent) {
		select {
		case events <- sseEvent{name: "connection", data: ev}:
		default:
		}
	})
	if err != nil {
		h.logger.Error("failed to subscribe to connection events",
			"identity_id", identityID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}
	defer unsubConn()

	sendSSEEvent(w, flusher, "connected", map[string]string{
		"identity_id": identityID,
	})

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	done := ctx.Done()
	for {
		select {
		case <-done:
			h.logger.Info("SSE client disconnected", "identity_id", identityID)
			return

		case ev := <-events:
			sendSSEEvent(w, flusher, ev.name, ev.data)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
