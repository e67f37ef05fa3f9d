package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Add(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dialHub(t, hub)
	require.Equal(t, 1, hub.ClientCount())

	hub.Broadcast(Message{Type: TypeLeaderboardUpdate, Data: map[string]int{"total": 3}})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, TypeLeaderboardUpdate, msg.Type)
}

func TestHubAddAndSendDeliversInitialFrame(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	initial := Message{Type: TypeLeaderboardUpdate, Data: map[string]int{"total": 1}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if err := hub.AddAndSend(conn, initial); err != nil {
			return
		}
		// Concurrent broadcasts must be safe from the moment the client is
		// registered; the initial frame still arrives first.
		hub.Broadcast(Message{Type: TypeSubmissionNew, Data: nil})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var first Message
	require.NoError(t, json.Unmarshal(raw, &first))
	assert.Equal(t, TypeLeaderboardUpdate, first.Type)
	assert.Equal(t, 1, hub.ClientCount())

	_, raw, err = conn.ReadMessage()
	require.NoError(t, err)
	var second Message
	require.NoError(t, json.Unmarshal(raw, &second))
	assert.Equal(t, TypeSubmissionNew, second.Type)
}

func TestHubAddAndSendEvictsOnFailedWrite(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dialHub(t, hub)
	serverConn := findSingleClient(t, hub)
	hub.Remove(serverConn)
	conn.Close()

	// Writing on the closed server-side connection fails and the client must
	// not linger in the set.
	err := hub.AddAndSend(serverConn, Message{Type: TypeLeaderboardUpdate, Data: nil})
	assert.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubEvictsDeadConnections(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dialHub(t, hub)
	require.Equal(t, 1, hub.ClientCount())

	conn.Close()
	// The first write after the close fails and the hub drops the client.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() > 0 && time.Now().Before(deadline) {
		hub.Broadcast(Message{Type: TypeSubmissionNew, Data: nil})
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubRemoveIsIdempotent(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	conn := dialHub(t, hub)
	serverConn := findSingleClient(t, hub)

	hub.Remove(serverConn)
	hub.Remove(serverConn)
	assert.Equal(t, 0, hub.ClientCount())

	_ = conn
}

func findSingleClient(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	hub.mu.Lock()
	defer hub.mu.Unlock()
	require.Len(t, hub.clients, 1)
	for c := range hub.clients {
		return c
	}
	return nil
}
