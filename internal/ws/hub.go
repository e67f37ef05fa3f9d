package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Message is the envelope every realtime frame uses, e.g.
// {"type":"leaderboard:update","data":{...}}.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

const (
	TypeLeaderboardUpdate = "leaderboard:update"
	TypeSubmissionNew     = "submission:new"
	TypeUserStatsUpdate   = "user:stats:update"
)

// Hub tracks every connected leaderboard listener. Delivery is best-effort:
// a failed write closes and evicts the connection, nothing is retried.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[conn] = true
	log.Printf("ws: client connected (total: %d)", len(h.clients))
}

// AddAndSend registers the connection and writes an initial message while
// still holding the hub lock, so a concurrent Broadcast cannot interleave a
// write on the new connection. A failed initial write evicts immediately.
func (h *Hub) AddAndSend(conn *websocket.Conn, message Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[conn] = true
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		delete(h.clients, conn)
		conn.Close()
		return err
	}
	log.Printf("ws: client connected (total: %d)", len(h.clients))
	return nil
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
		log.Printf("ws: client disconnected (total: %d)", len(h.clients))
	}
}

func (h *Hub) Broadcast(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("ws: marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("ws: write error: %v", err)
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount reports connected listeners, used by tests and the health log.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close drops every connection, for graceful shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
