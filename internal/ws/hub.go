package ws

import (
	"encoding/json"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fiberbendr/OurShopper/internal/models"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "ws").Logger()

const (
	EventPurchaseAdded   = "purchase_added"
	EventPurchaseDeleted = "purchase_deleted"
)

// Event is one broadcast message pushed to every open client connection.
type Event struct {
	Type     string           `json:"type"`
	Purchase *models.Purchase `json:"purchase,omitempty"`
	ID       string           `json:"id,omitempty"`
}

func PurchaseAdded(p *models.Purchase) Event {
	return Event{Type: EventPurchaseAdded, Purchase: p}
}

func PurchaseDeleted(id string) Event {
	return Event{Type: EventPurchaseDeleted, ID: id}
}

// Hub is the registry of currently-open client connections. It is created
// once at server start and handed to the request handlers; there is no
// package-level registry, so tests can run isolated instances.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// HandleConn upgrades the request and keeps the connection registered
// until it closes. Clients send nothing meaningful; the read loop exists
// only to notice the close.
func (h *Hub) HandleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("failed to upgrade")
		return
	}

	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
	logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("client connected")

	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Info().Str("remote", conn.RemoteAddr().String()).Msg("client disconnected")
				return
			}
		}
	}()
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

// Count reports the number of registered connections.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast marshals the event once and pushes the text frame to every
// open connection. Delivery is best-effort: a connection whose write
// fails is dropped, a client that is not connected receives nothing.
func (h *Hub) Broadcast(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("dropping dead connection")
			_ = conn.Close()
			delete(h.conns, conn)
		}
	}
}

// Close disconnects every registered client. Used on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.Close()
		delete(h.conns, conn)
	}
}
