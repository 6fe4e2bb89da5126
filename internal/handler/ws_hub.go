package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// EventConnected greets a new connection.
const EventConnected = "connected"

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// WSConn wraps a WebSocket connection with the client it belongs to.
type WSConn struct {
	conn     *websocket.Conn
	clientID string
	send     chan []byte
}

// Hub tracks WebSocket connections per API client.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*WSConn]bool
	count   int
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*WSConn]bool)}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.clientID] == nil {
		h.clients[c.clientID] = make(map[*WSConn]bool)
	}
	if !h.clients[c.clientID][c] {
		h.clients[c.clientID][c] = true
		h.count++
	}
}

// Unregister removes a connection and closes its send channel.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.clientID]
	if !ok || !conns[c] {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.clientID)
	}
	h.count--
	close(c.send)
}

// Send queues an event for every connection of a client. Slow connections
// drop the event rather than block the solver.
func (h *Hub) Send(clientID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("clientId", clientID).Str("type", event.Type).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[clientID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("clientId", clientID).Str("type", event.Type).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// BroadcastToClient implements service.Broadcaster.
func (h *Hub) BroadcastToClient(clientID, eventType string, data any) {
	h.Send(clientID, WSEvent{Type: eventType, Data: data})
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// ClientConnectionCount returns the number of connections a client holds.
func (h *Hub) ClientConnectionCount(clientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[clientID])
}
