// Package client is the consumer-side half of the sync path: it keeps a
// cached copy of the purchase list and invalidates it whenever the
// server broadcasts a mutation event.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fiberbendr/OurShopper/internal/models"
	"github.com/fiberbendr/OurShopper/internal/ws"
)

// Status of the sync channel as seen by this client.
type Status string

const (
	StatusSynced  Status = "synced"
	StatusSyncing Status = "syncing"
	StatusOffline Status = "offline"
)

const purchasesPath = "/api/purchases"

// fixed delay, no backoff, no retry cap
const reconnectDelay = 3 * time.Second

type Option func(*Client)

// WithStatusFunc installs a callback invoked on each status change.
func WithStatusFunc(fn func(Status)) Option {
	return func(c *Client) { c.onStatus = fn }
}

// Client holds one cached collection per resource path and keeps it
// fresh by listening for broadcast events.
type Client struct {
	baseURL  string
	http     *http.Client
	onStatus func(Status)

	mu    sync.Mutex
	cache map[string][]models.Purchase
	valid map[string]bool
	gen   map[string]uint64
}

// New builds a client for a server base URL such as "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		cache:   make(map[string][]models.Purchase),
		valid:   make(map[string]bool),
		gen:     make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) setStatus(s Status) {
	if c.onStatus != nil {
		c.onStatus(s)
	}
}

// Purchases returns the cached collection, refetching when invalidated.
func (c *Client) Purchases(ctx context.Context) ([]models.Purchase, error) {
	c.mu.Lock()
	if c.valid[purchasesPath] {
		cached := c.cache[purchasesPath]
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()
	return c.refetch(ctx, purchasesPath)
}

// Invalidate discards the cached collection for the given resource path.
// Bumping the generation also disowns any refetch already in flight: its
// response predates this invalidation and must not re-validate the cache.
func (c *Client) Invalidate(path string) {
	c.mu.Lock()
	c.valid[path] = false
	c.gen[path]++
	c.mu.Unlock()
}

func (c *Client) refetch(ctx context.Context, path string) ([]models.Purchase, error) {
	c.mu.Lock()
	startGen := c.gen[path]
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", path, resp.StatusCode)
	}

	var purchases []models.Purchase
	if err := json.NewDecoder(resp.Body).Decode(&purchases); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	c.mu.Lock()
	// only the newest generation may repopulate the cache; a stale
	// response is returned to its caller but leaves the cache invalid
	if c.gen[path] == startGen {
		c.cache[path] = purchases
		c.valid[path] = true
	}
	c.mu.Unlock()
	return purchases, nil
}

// Listen connects to the server's push channel and invalidates the cache
// on each mutation event. A dropped connection is retried every three
// seconds until ctx is done; events missed while offline are covered by
// the full refetch after reconnecting.
func (c *Client) Listen(ctx context.Context) {
	wsURL := wsEndpoint(c.baseURL)
	for {
		if err := c.listenOnce(ctx, wsURL); err != nil {
			c.setStatus(StatusOffline)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// wsEndpoint derives the push-channel URL from the HTTP base URL by
// swapping the scheme, never by string substitution on the host.
func wsEndpoint(base string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "/ws"
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String()
}

func (c *Client) listenOnce(ctx context.Context, wsURL string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// anything broadcast before this moment is gone for good; a full
	// refetch on the next read brings us level
	c.Invalidate(purchasesPath)
	c.setStatus(StatusSynced)

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var ev ws.Event
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		switch ev.Type {
		case ws.EventPurchaseAdded, ws.EventPurchaseDeleted:
			// the event payload itself is discarded; the refetch is
			// always the full collection
			c.setStatus(StatusSyncing)
			c.Invalidate(purchasesPath)
			go func() {
				if _, err := c.refetch(ctx, purchasesPath); err == nil {
					c.setStatus(StatusSynced)
				}
			}()
		}
	}
}
