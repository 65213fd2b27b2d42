package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fiberbendr/OurShopper/internal/models"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConn))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// registration happens on the server side of the handshake, shortly
// after Dial returns
func waitForCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub count = %d, want %d", hub.Count(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestBroadcast_AllOpenConnections(t *testing.T) {
	hub, srv := startHub(t)

	first := dial(t, srv)
	second := dial(t, srv)
	waitForCount(t, hub, 2)

	hub.Broadcast(PurchaseAdded(&models.Purchase{ID: "p1", Place: "Acme"}))

	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		if ev.Type != EventPurchaseAdded {
			t.Errorf("event type = %q, want %q", ev.Type, EventPurchaseAdded)
		}
		if ev.Purchase == nil || ev.Purchase.ID != "p1" {
			t.Errorf("event purchase = %+v, want p1", ev.Purchase)
		}
	}
}

func TestBroadcast_LateJoinerMissesEarlierEvents(t *testing.T) {
	hub, srv := startHub(t)

	early := dial(t, srv)
	waitForCount(t, hub, 1)

	hub.Broadcast(PurchaseDeleted("gone-before-join"))

	late := dial(t, srv)
	waitForCount(t, hub, 2)
	hub.Broadcast(PurchaseDeleted("second"))

	// early client sees both, in send order
	if ev := readEvent(t, early); ev.ID != "gone-before-join" {
		t.Errorf("early first event id = %q", ev.ID)
	}
	if ev := readEvent(t, early); ev.ID != "second" {
		t.Errorf("early second event id = %q", ev.ID)
	}

	// late client sees only the second: no replay of missed events
	if ev := readEvent(t, late); ev.ID != "second" {
		t.Errorf("late client first event id = %q, want second", ev.ID)
	}
}

func TestBroadcast_DeletedEventShape(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv)
	waitForCount(t, hub, 1)

	hub.Broadcast(PurchaseDeleted("p9"))

	ev := readEvent(t, conn)
	if ev.Type != EventPurchaseDeleted || ev.ID != "p9" || ev.Purchase != nil {
		t.Errorf("event = %+v, want bare purchase_deleted with id", ev)
	}
}

func TestHub_DropsClosedConnections(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv)
	waitForCount(t, hub, 1)

	conn.Close()
	waitForCount(t, hub, 0)

	// broadcasting into an empty registry is a no-op, not a panic
	hub.Broadcast(PurchaseDeleted("p1"))
}
