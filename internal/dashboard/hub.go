package dashboard

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"xelis-stats/internal/observability"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 8
)

type hubClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *hubClient) close() {
	c.once.Do(func() { close(c.send) })
}

// HubOptions configures a Hub.
type HubOptions struct {
	// Initial returns the message sent to a client right after it
	// connects. nil sends nothing.
	Initial func() any

	CheckOrigin func(r *http.Request) bool
	Logger      *slog.Logger
}

// Hub pushes board snapshots to websocket clients. Slow clients whose
// send buffer is full are disconnected.
type Hub struct {
	upgrader websocket.Upgrader
	opts     HubOptions

	mu      sync.Mutex
	clients map[string]*hubClient
	closed  bool
}

// NewHub creates a hub.
func NewHub(opts HubOptions) *Hub {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: opts.CheckOrigin},
		opts:     opts,
		clients:  make(map[string]*hubClient),
	}
}

// ServeHTTP upgrades the request and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opts.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &hubClient{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	if h.opts.Initial != nil {
		if msg, err := json.Marshal(h.opts.Initial()); err == nil {
			c.send <- msg
		}
	}
	if !h.register(c) {
		conn.Close()
		return
	}
	h.opts.Logger.Debug("websocket client connected", "client", c.id)

	go h.writeLoop(c)
	h.readLoop(c)
}

func (h *Hub) register(c *hubClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	observability.UpdateWSClients(len(h.clients))
	return true
}

func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		c.close()
	}
	n := len(h.clients)
	h.mu.Unlock()
	observability.UpdateWSClients(n)
}

// readLoop drains client frames until the connection fails.
func (h *Hub) readLoop(c *hubClient) {
	defer h.unregister(c)

	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *hubClient) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
			observability.RecordWSMessage()
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Broadcast sends v as JSON to every client.
func (h *Hub) Broadcast(v any) error {
	msg, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode broadcast: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.opts.Logger.Warn("dropping slow websocket client", "client", id)
			delete(h.clients, id)
			c.close()
		}
	}
	observability.UpdateWSClients(len(h.clients))
	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		delete(h.clients, id)
		c.close()
	}
	observability.UpdateWSClients(0)
}
