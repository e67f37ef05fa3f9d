package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"questboardAPI/internal/ws"
	"questboardAPI/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The board is public read-only data, so cross-origin clients are fine.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type RealtimeHandler struct {
	hub                *ws.Hub
	leaderboardService *services.LeaderboardService
}

func NewRealtimeHandler(hub *ws.Hub, leaderboardService *services.LeaderboardService) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, leaderboardService: leaderboardService}
}

// Serve upgrades the connection, sends the current standings and keeps the
// socket registered until the client goes away.
func (h *RealtimeHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	snapshot, err := h.leaderboardService.Snapshot(ctx)
	cancel()

	// Registration and the initial frame happen under the hub lock so a
	// broadcast cannot write to this connection at the same time.
	if err != nil {
		log.Printf("Initial leaderboard snapshot failed: %v", err)
		h.hub.Add(conn)
	} else if err := h.hub.AddAndSend(conn, ws.Message{Type: ws.TypeLeaderboardUpdate, Data: snapshot}); err != nil {
		return
	}
	defer h.hub.Remove(conn)

	// Clients never send application messages. The read loop only exists to
	// detect disconnects and answer pings.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
