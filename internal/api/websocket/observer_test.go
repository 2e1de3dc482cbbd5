package websocket

import (
	"context"
	"testing"

	"github.com/ramonehamilton/bulkbuddy/internal/events"
)

func TestWebSocketObserver_Metadata(t *testing.T) {
	observer := NewWebSocketObserver(NewHub(nil, nil))

	if name := observer.GetName(); name != "WebSocketObserver" {
		t.Errorf("Expected 'WebSocketObserver', got '%s'", name)
	}

	for _, eventType := range []string{events.TypeDeckUpdated, events.TypeCollectionUpdated, "custom:event"} {
		if !observer.ShouldHandle(eventType) {
			t.Errorf("Expected ShouldHandle(%s) to return true", eventType)
		}
	}
}

func TestWebSocketObserver_OnEvent_NilHub(t *testing.T) {
	observer := &WebSocketObserver{}

	if err := observer.OnEvent(events.Event{Type: "test:event"}); err != nil {
		t.Errorf("OnEvent with nil hub returned error: %v", err)
	}
}

func TestWebSocketObserver_RoutesByUser(t *testing.T) {
	hub, wsURL := startHub(t)
	alice := dial(t, wsURL, "alice")
	bob := dial(t, wsURL, "bob")
	waitForClients(t, hub, 2)

	dispatcher := events.NewEventDispatcher(nil)
	dispatcher.Register(NewWebSocketObserver(hub))

	dispatcher.Dispatch(events.NewTypedEvent(context.Background(), events.TypeDeckCreated, "alice",
		events.DeckEvent{DeckID: "d1", Name: "Elves", Action: "created"}))
	dispatcher.Dispatch(events.NewTypedEvent(context.Background(), events.TypeCardImported, "",
		events.CardImportedEvent{CardID: "c1", Name: "Opt"}))

	first := readEvent(t, alice)
	if first.Type != events.TypeDeckCreated {
		t.Fatalf("Expected alice to receive %s, got %s", events.TypeDeckCreated, first.Type)
	}
	data, ok := first.Data.(map[string]any)
	if !ok || data["deckId"] != "d1" {
		t.Errorf("Unexpected payload: %v", first.Data)
	}

	if got := readEvent(t, bob).Type; got != events.TypeCardImported {
		t.Errorf("Expected bob to receive only the broadcast, got %s", got)
	}
}
