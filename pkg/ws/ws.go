// Package ws pushes order events to shopkeeper dashboards over WebSocket
// using gorilla/websocket.
//
// Connections are grouped by shop; an event published for a shop reaches
// only that shop's connections:
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//
//	// in the feed handler, after authentication:
//	ws.Upgrade(w, r, hub, identity.ShopID)
//
//	// from anywhere:
//	hub.Publish(shopID, event)
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/pkg/logger"
	"github.com/quickkiraana/kiraana/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 64
)

// A nil CheckOrigin is gorilla's same-origin check.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// SetCheckOrigin replaces the default (same-origin) checker. Call it before
// serving.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}

// AllowOrigins accepts handshakes from the listed origins, from the
// server's own host, and from clients that send no Origin (non-browser).
// A "*" entry accepts every origin.
func AllowOrigins(origins ...string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			allowed[strings.ToLower(o)] = true
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || allowed[strings.ToLower(origin)] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// ─── Client ───────────────────────────────────────────────────────────────────

// Client is one dashboard connection. conn is nil for subscriptions made
// with Subscribe.
type Client struct {
	hub    *Hub
	shopID models.ShopID
	conn   *websocket.Conn
	send   chan []byte
}

// readPump only keeps the read deadline alive; dashboards never send.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.Warn("ws: unexpected close", "shop_id", c.shopID.String(), "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ─── Hub ──────────────────────────────────────────────────────────────────────

type envelope struct {
	shopID models.ShopID
	data   []byte
}

// Hub tracks open dashboard connections per shop. All state is owned by
// the Run goroutine.
type Hub struct {
	clients    map[models.ShopID]map[*Client]struct{}
	publish    chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	count      atomic.Int64
}

// NewHub creates a Hub. Call Run in its own goroutine before use.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[models.ShopID]map[*Client]struct{}),
		publish:    make(chan envelope, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub event loop. It returns when ctx is done, closing every
// connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					h.drop(c)
				}
			}
			return

		case c := <-h.register:
			set, ok := h.clients[c.shopID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.shopID] = set
			}
			set[c] = struct{}{}
			h.count.Add(1)
			metrics.FeedConnections.Inc()
			logger.Info("ws: dashboard connected", "shop_id", c.shopID.String(), "total", h.count.Load())

		case c := <-h.unregister:
			if _, ok := h.clients[c.shopID][c]; ok {
				h.drop(c)
				logger.Info("ws: dashboard disconnected", "shop_id", c.shopID.String(), "total", h.count.Load())
			}

		case env := <-h.publish:
			for c := range h.clients[env.shopID] {
				select {
				case c.send <- env.data:
				default:
					// Slow consumer; it can reconnect and poll.
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *Client) {
	set := h.clients[c.shopID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.shopID)
	}
	close(c.send)
	h.count.Add(-1)
	metrics.FeedConnections.Dec()
}

// Publish queues v, encoded as JSON, for every connection of shopID. It
// never blocks; events are dropped when the hub is saturated.
func (h *Hub) Publish(shopID models.ShopID, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("ws: encode event", "shop_id", shopID.String(), "error", err)
		return
	}
	select {
	case h.publish <- envelope{shopID: shopID, data: data}:
	default:
		logger.Warn("ws: publish queue full, event dropped", "shop_id", shopID.String())
	}
}

// Subscribe registers a listener for shopID without a WebSocket. The
// channel is closed when cancel is called, when the listener falls behind,
// or when the hub stops.
func (h *Hub) Subscribe(shopID models.ShopID) (<-chan []byte, func()) {
	c := &Client{hub: h, shopID: shopID, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
		return c.send, func() {}
	}

	var once sync.Once
	return c.send, func() {
		once.Do(func() {
			select {
			case h.unregister <- c:
			case <-h.done:
			}
		})
	}
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// ─── Upgrade ─────────────────────────────────────────────────────────────────

// Upgrade upgrades the request to a WebSocket and registers the connection
// under shopID. The caller must have authenticated the request.
func Upgrade(w http.ResponseWriter, r *http.Request, hub *Hub, shopID models.ShopID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
		return
	}
	c := &Client{hub: hub, shopID: shopID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case hub.register <- c:
	case <-hub.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}
