package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

func startHub(t *testing.T, businessID uuid.UUID) (*Hub, string) {
	t.Helper()
	hub := NewHub([]string{"*"})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(w, r, businessID, uuid.New()); err != nil {
			t.Logf("upgrade: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitForClients(t *testing.T, hub *Hub, businessID uuid.UUID, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount(businessID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, hub.ClientCount(businessID))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	businessID := uuid.New()
	hub, url := startHub(t, businessID)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, businessID, 1)

	hub.Publish(Event{Type: EventSaleCreated, BusinessID: businessID, Data: map[string]string{"id": "s-1"}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != EventSaleCreated || ev.BusinessID != businessID {
		t.Fatalf("expected sale.created for %s, got %+v", businessID, ev)
	}
	if ev.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be stamped")
	}
}

func TestPublishIsScopedToBusiness(t *testing.T) {
	businessID := uuid.New()
	hub, url := startHub(t, businessID)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitForClients(t, hub, businessID, 1)

	hub.Publish(Event{Type: EventSaleCreated, BusinessID: uuid.New()})

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no event from another business")
	}
}

func TestClientRemovedOnDisconnect(t *testing.T) {
	businessID := uuid.New()
	hub, url := startHub(t, businessID)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	waitForClients(t, hub, businessID, 1)
	conn.Close()
	waitForClients(t, hub, businessID, 0)
}
