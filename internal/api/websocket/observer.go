package websocket

import (
	"github.com/ramonehamilton/bulkbuddy/internal/events"
)

// WebSocketObserver forwards domain events to the websocket clients of the
// user each event belongs to. Events without a user go to everyone.
type WebSocketObserver struct {
	hub *Hub
}

// NewWebSocketObserver creates an observer that pushes events through hub.
func NewWebSocketObserver(hub *Hub) *WebSocketObserver {
	return &WebSocketObserver{hub: hub}
}

// OnEvent pushes the event to connected clients.
func (o *WebSocketObserver) OnEvent(event events.Event) error {
	if o.hub == nil {
		return nil
	}

	msg := Event{Type: event.Type, Data: event.Data}
	if event.UserID == "" {
		o.hub.BroadcastEvent(msg)
		return nil
	}
	o.hub.SendToUser(event.UserID, msg)
	return nil
}

// GetName returns the observer's name.
func (o *WebSocketObserver) GetName() string {
	return "WebSocketObserver"
}

// ShouldHandle returns true for all events.
func (o *WebSocketObserver) ShouldHandle(string) bool {
	return true
}

var _ events.Observer = (*WebSocketObserver)(nil)
