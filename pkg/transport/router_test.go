package transport

import (
	"net"
	"testing"
	"time"

	"github.com/pulsegrid/predictsync/pkg/wire"
)

func newTestConn(t *testing.T) (conn *Conn, client net.Conn) {
	t.Helper()
	serverRaw, clientRaw := net.Pipe()
	srv := NewServer(DefaultConfig(), nil)
	c := NewConn(serverRaw, srv)
	c.SetCallback(noopCallback{})
	go c.Do()
	t.Cleanup(func() { c.Close() })
	return c, clientRaw
}

type noopCallback struct{}

func (noopCallback) OnConnect(*Conn) bool          { return true }
func (noopCallback) OnMessage(*Conn, *Packet) bool { return true }
func (noopCallback) OnClose(*Conn)                 {}

func recvOrTimeout(t *testing.T, client net.Conn) (*Packet, bool) {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	pkt, err := ReadPacket(client)
	if err != nil {
		return nil, false
	}
	return pkt, true
}

func TestSendExcludeOwnerSkipsQuietConnection(t *testing.T) {
	r := NewRouter()
	quiet, quietClient := newTestConn(t)
	fresh, freshClient := newTestConn(t)
	r.Register(1, quiet)
	r.Register(2, fresh)
	r.SetQuietCheck(func(connID uint64) bool { return connID == 1 })

	r.Send(FilterExcludeOwner, 99, NewPacket(wire.ID_State, nil))

	if _, ok := recvOrTimeout(t, quietClient); ok {
		t.Fatalf("quiet connection received a packet, want none")
	}
	if _, ok := recvOrTimeout(t, freshClient); !ok {
		t.Fatalf("fresh connection received no packet, want one")
	}
}

func TestSendOwnerSkipsQuietOwner(t *testing.T) {
	r := NewRouter()
	quiet, quietClient := newTestConn(t)
	r.Register(1, quiet)
	r.SetQuietCheck(func(connID uint64) bool { return true })

	r.Send(FilterOwner, 1, NewPacket(wire.ID_State, nil))

	if _, ok := recvOrTimeout(t, quietClient); ok {
		t.Fatalf("quiet owner received a packet, want none")
	}
}

func TestSendWithNoQuietCheckReachesEveryone(t *testing.T) {
	r := NewRouter()
	a, aClient := newTestConn(t)
	r.Register(1, a)

	r.Send(FilterOwner, 1, NewPacket(wire.ID_State, nil))

	if _, ok := recvOrTimeout(t, aClient); !ok {
		t.Fatalf("expected a packet with no quiet check installed")
	}
}
