package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// startHub runs a hub behind a test server that takes the user from the
// "user" query parameter.
func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub(nil, nil)
	go hub.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWs(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(func() {
		hub.Stop()
		server.Close()
	})

	return hub, "ws" + strings.TrimPrefix(server.URL, "http")
}

func dial(t *testing.T, wsURL, userID string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?user="+userID, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients, got %d", want, hub.ClientCount())
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	var received Event
	if err := json.Unmarshal(message, &received); err != nil {
		t.Fatalf("Failed to unmarshal received message: %v", err)
	}
	return received
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil, nil)

	if hub.clients == nil {
		t.Error("Hub clients map is nil")
	}
	if hub.outbound == nil {
		t.Error("Hub outbound channel is nil")
	}
	if hub.IsStopped() {
		t.Error("New hub should not be stopped")
	}
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub, _ := startHub(t)

	if !hub.BroadcastEvent(Event{Type: "test:event"}) {
		t.Error("Expected broadcast on a running hub to succeed")
	}
}

func TestHub_SendToUser(t *testing.T) {
	hub, wsURL := startHub(t)

	alice := dial(t, wsURL, "alice")
	bob := dial(t, wsURL, "bob")
	waitForClients(t, hub, 2)

	hub.SendToUser("bob", Event{Type: "deck:updated", Data: map[string]string{"deckId": "d1"}})
	hub.BroadcastEvent(Event{Type: "card:imported"})

	if got := readEvent(t, bob).Type; got != "deck:updated" {
		t.Errorf("Expected bob to receive deck:updated first, got %s", got)
	}
	if got := readEvent(t, bob).Type; got != "card:imported" {
		t.Errorf("Expected bob to receive card:imported, got %s", got)
	}

	// Alice only sees the broadcast.
	if got := readEvent(t, alice).Type; got != "card:imported" {
		t.Errorf("Expected alice to receive card:imported, got %s", got)
	}
}

func TestHub_MultipleConnectionsPerUser(t *testing.T) {
	hub, wsURL := startHub(t)

	conns := []*websocket.Conn{
		dial(t, wsURL, "alice"),
		dial(t, wsURL, "alice"),
		dial(t, wsURL, "alice"),
	}
	waitForClients(t, hub, 3)

	hub.SendToUser("alice", Event{Type: "collection:updated", Data: map[string]int{"quantity": 3}})

	for i, conn := range conns {
		if got := readEvent(t, conn).Type; got != "collection:updated" {
			t.Errorf("Client %d expected collection:updated, got %s", i, got)
		}
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, wsURL := startHub(t)

	conn := dial(t, wsURL, "alice")
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}

func TestHub_Stop(t *testing.T) {
	hub, wsURL := startHub(t)

	conn := dial(t, wsURL, "alice")
	waitForClients(t, hub, 1)

	hub.Stop()
	hub.Stop()

	// The hub closes the client with a close frame.
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected read to fail after hub stop")
	}

	deadline := time.Now().Add(time.Second)
	for !hub.IsStopped() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.BroadcastEvent(Event{Type: "late"}) {
		t.Error("Expected broadcast on a stopped hub to fail")
	}
}

func TestHub_OriginCheck(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	allowed := httptest.NewRequest(http.MethodGet, "/ws", nil)
	allowed.Header.Set("Origin", "http://localhost:3000")
	if !check(allowed) {
		t.Error("Expected configured origin to be allowed")
	}

	denied := httptest.NewRequest(http.MethodGet, "/ws", nil)
	denied.Header.Set("Origin", "http://evil.example")
	if check(denied) {
		t.Error("Expected unknown origin to be rejected")
	}

	if !originChecker([]string{"*"})(denied) {
		t.Error("Expected wildcard to allow any origin")
	}
}
