// Package dashboard exposes a read-only websocket feed of room/controller
// state for spectator and debugging tools, grounded on the
// upgrade-then-broadcast shape of a websocket hub, simplified to a
// one-directional feed: no client->server dashboard traffic is accepted,
// only registration and disconnect.
package dashboard

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	l4g "github.com/alecthomas/log4go"
)

// ControllerSnapshot is one controller's worth of dashboard state.
type ControllerSnapshot struct {
	EntityID               uint64  `json:"entity_id"`
	ControllerConnectionID uint64  `json:"controller_connection_id"`
	Role                   string  `json:"role"`
	Tick                   uint32  `json:"tick"`
	VisualOffsetMagnitude  float64 `json:"visual_offset_magnitude"`
}

// Snapshot is one room's worth of dashboard state, broadcast to every
// connected spectator each time the host publishes an update.
type Snapshot struct {
	RoomID      uint64               `json:"room_id"`
	ServerTick  uint32               `json:"server_tick"`
	Controllers []ControllerSnapshot `json:"controllers"`
}

// Hub upgrades HTTP connections to websockets and fans out Snapshots to
// every connected spectator. It accepts no inbound traffic beyond the
// initial upgrade; a read error or close from the peer unregisters it.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the resulting connection as
// a spectator.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		l4g.Warn("[dashboard] upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	go h.drain(conn)
}

// drain discards inbound frames (the feed is read-only) until the peer
// disconnects, then unregisters the connection.
func (h *Hub) drain(conn *websocket.Conn) {
	defer h.unregister(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends snapshot as JSON to every connected spectator, dropping
// any connection that fails to accept the write.
func (h *Hub) Broadcast(snapshot Snapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		l4g.Error("[dashboard] marshal snapshot: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount reports the number of connected spectators, for status pages.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
