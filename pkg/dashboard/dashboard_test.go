package dashboard

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestBroadcastDeliversSnapshotToConnectedSpectator(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	waitForClientCount(t, hub, 1)

	hub.Broadcast(Snapshot{
		RoomID:     7,
		ServerTick: 42,
		Controllers: []ControllerSnapshot{
			{EntityID: 1, ControllerConnectionID: 2, Role: "LocalHost", Tick: 42, VisualOffsetMagnitude: 0.25},
		},
	})

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var got Snapshot
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.RoomID != 7 || got.ServerTick != 42 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if len(got.Controllers) != 1 || got.Controllers[0].Role != "LocalHost" {
		t.Fatalf("unexpected controllers: %+v", got.Controllers)
	}
}

func TestUnregisterOnDisconnectDropsClientCount(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	waitForClientCount(t, hub, 1)
	conn.Close()
	waitForClientCount(t, hub, 0)
}

func waitForClientCount(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client count never reached %d, still %d", want, hub.ClientCount())
}
