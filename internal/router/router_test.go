package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fiberbendr/OurShopper/internal/config"
	"github.com/fiberbendr/OurShopper/internal/database"
	"github.com/fiberbendr/OurShopper/internal/models"
	"github.com/fiberbendr/OurShopper/internal/notify"
	"github.com/fiberbendr/OurShopper/internal/store"
	"github.com/fiberbendr/OurShopper/internal/ws"
)

// full server wiring: REST mutation -> persistence -> broadcast
func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=on"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	hub := ws.NewHub()
	notifier := notify.NewNotifier(nil, 4)
	t.Cleanup(func() {
		hub.Close()
		notifier.Close()
	})

	cfg := &config.Config{Server: config.ServerConfig{Mode: gin.TestMode}}
	engine := SetupRouter(cfg, store.New(db), hub, notifier)

	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func postPurchase(t *testing.T, srv *httptest.Server) models.Purchase {
	t.Helper()
	body := []byte(`{"date":"2024-01-15","place":"Acme","paymentType":"Cash",
		"lineItems":[{"category":"Grocery","price":"12.50"},{"category":"Gas","price":"40.00"}]}`)
	resp, err := http.Post(srv.URL+"/api/purchases", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("post status = %d", resp.StatusCode)
	}
	var created models.Purchase
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	return created
}

func TestCreateBroadcastsToOpenSessions(t *testing.T) {
	srv := startServer(t)
	conn := dialWS(t, srv)

	created := postPurchase(t, srv)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev ws.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != ws.EventPurchaseAdded {
		t.Errorf("event type = %q", ev.Type)
	}
	if ev.Purchase == nil || ev.Purchase.ID != created.ID {
		t.Errorf("event purchase = %+v, want id %s", ev.Purchase, created.ID)
	}
}

func TestDeleteBroadcastsID(t *testing.T) {
	srv := startServer(t)
	created := postPurchase(t, srv)

	conn := dialWS(t, srv)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/purchases/"+created.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev ws.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Type != ws.EventPurchaseDeleted || ev.ID != created.ID {
		t.Errorf("event = %+v, want purchase_deleted %s", ev, created.ID)
	}
}

func TestDeleteOfMissingIDDoesNotBroadcast(t *testing.T) {
	srv := startServer(t)
	conn := dialWS(t, srv)

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/purchases/no-such-id", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d, want idempotent 200", resp.StatusCode)
	}

	// nothing was removed, so no event may arrive
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var ev ws.Event
	if err := conn.ReadJSON(&ev); err == nil {
		t.Fatalf("unexpected event %+v after no-op delete", ev)
	}
}
