// Grounded on internal/api/stream.go; Hub/Client shape and keepalive
// constants unchanged, BroadcastEvent/BroadcastSnapshot re-themed to this
// package's DashboardEvent/DashboardSnapshot types.
package api

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

// Hub tracks connected WebSocket clients and fans broadcasts out to all of
// them.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu     sync.RWMutex
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		logger:     logger.With("component", "api-hub"),
	}
}

// Run services register/unregister/broadcast for the life of the process;
// it never returns.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("client connected", "total", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "total", len(h.clients))

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// client too slow to drain; drop it rather than block
					// the hub for every other client.
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastEvent marshals evt and fans it out to every connected client.
// Never blocks the caller.
func (h *Hub) BroadcastEvent(evt DashboardEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		h.logger.Error("failed to marshal dashboard event", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("hub broadcast channel full, dropping event", "type", evt.Type)
	}
}

func (h *Hub) BroadcastSnapshot(snapshot DashboardSnapshot) {
	h.BroadcastEvent(DashboardEvent{Type: "snapshot", Timestamp: snapshot.Timestamp, Data: snapshot})
}

// Client wraps one WebSocket connection. It is read-only from the
// dashboard's perspective — the agent never accepts commands back over
// this connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 32)}
	hub.register <- client
	go client.writePump()
	go client.readPump()
	return client
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only exists to surface pong/close frames and enforce
// maxMessageSize; this agent's dashboard is read-only so inbound data
// frames are discarded.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
