package room

import (
	"net"
	"testing"
	"time"

	proto "github.com/golang/protobuf/proto"

	"github.com/pulsegrid/predictsync/pkg/clock"
	"github.com/pulsegrid/predictsync/pkg/demo"
	"github.com/pulsegrid/predictsync/pkg/predict"
	"github.com/pulsegrid/predictsync/pkg/sim"
	"github.com/pulsegrid/predictsync/pkg/transport"
	"github.com/pulsegrid/predictsync/pkg/wire"
)

func demoSimFactory(_ predict.Identity) sim.Simulator { return demo.NewMover(1.0) }

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	r := NewRoom(1, clock.Options{TickInterval: 0.02}, predict.DefaultOptions(), demoSimFactory, demo.Codec{}, 1000, 100)
	go r.Run()
	t.Cleanup(r.Stop)
	return r
}

func dialInto(t *testing.T, r *Room, connID, entityID uint64) (client net.Conn) {
	t.Helper()
	serverRaw, clientRaw := net.Pipe()
	srv := transport.NewServer(transport.DefaultConfig(), nil)
	conn := transport.NewConn(serverRaw, srv)
	conn.PutExtraData(ConnIdentity{ConnID: connID, EntityID: entityID})
	conn.SetCallback(r)
	go conn.Do()
	return clientRaw
}

func readAck(t *testing.T, client net.Conn) wire.ConnectAckMsg {
	t.Helper()
	client.SetReadDeadline(time.Now().Add(time.Second))
	pkt, err := transport.ReadPacket(client)
	if err != nil {
		t.Fatalf("read ack: %v", err)
	}
	if pkt.ID != wire.ID_ConnectAck {
		t.Fatalf("packet id = %s, want ID_ConnectAck", pkt.ID)
	}
	var ack wire.ConnectAckMsg
	if err := pkt.Unmarshal(&ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	return ack
}

func TestHandleJoinRegistersSessionAndController(t *testing.T) {
	r := newTestRoom(t)
	client := dialInto(t, r, 1, 5)
	defer client.Close()

	ack := readAck(t, client)
	if wire.ErrorCode(ack.GetErrorCode()) != wire.ErrorCode_OK {
		t.Fatalf("error code = %d, want OK", ack.GetErrorCode())
	}
	if ack.GetControllerConnectionId() != 1 {
		t.Fatalf("controller connection id = %d, want 1", ack.GetControllerConnectionId())
	}

	deadline := time.Now().Add(time.Second)
	var ctrl *predict.Controller
	var ok bool
	for time.Now().Before(deadline) {
		if ctrl, ok = r.coordinator.Lookup(5); ok {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !ok {
		t.Fatalf("controller for entity 5 never registered")
	}
	if ctrl.Role() != predict.RoleProxiedHost {
		t.Fatalf("role = %v, want RoleProxiedHost", ctrl.Role())
	}
}

func TestDispatchHeartbeatEchoesBack(t *testing.T) {
	r := newTestRoom(t)
	client := dialInto(t, r, 2, 6)
	defer client.Close()
	readAck(t, client) // drain the join ack first

	if _, err := client.Write(transport.NewPacket(wire.ID_Heartbeat, nil).Serialize()); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(time.Second))
	pkt, err := transport.ReadPacket(client)
	if err != nil {
		t.Fatalf("read heartbeat echo: %v", err)
	}
	if pkt.ID != wire.ID_Heartbeat {
		t.Fatalf("packet id = %s, want ID_Heartbeat", pkt.ID)
	}
}

func TestDispatchInputDoesNotCrashRoomAndCloseUnregistersController(t *testing.T) {
	r := newTestRoom(t)
	client := dialInto(t, r, 3, 7)
	readAck(t, client)

	msg := &wire.InputMsg{
		ControllerConnectionId: proto.Uint64(3),
		Current:                &wire.InputData{Tick: proto.Uint32(1), Payload: []byte(`{"x":1}`)},
	}
	if _, err := client.Write(transport.NewPacket(wire.ID_Input, msg).Serialize()); err != nil {
		t.Fatalf("write input: %v", err)
	}
	time.Sleep(50 * time.Millisecond) // let the room's single goroutine drain msgQ

	client.Close()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := r.coordinator.Lookup(7); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("controller for entity 7 was never unregistered after close")
}

func TestJoinReceivesCatchUpBacklogOfRecentStates(t *testing.T) {
	r := newTestRoom(t)
	first := dialInto(t, r, 20, 200)
	defer first.Close()
	readAck(t, first)

	msg := &wire.InputMsg{
		ControllerConnectionId: proto.Uint64(20),
		Current:                &wire.InputData{Tick: proto.Uint32(1), Payload: []byte(`{"x":1}`)},
	}
	if _, err := first.Write(transport.NewPacket(wire.ID_Input, msg).Serialize()); err != nil {
		t.Fatalf("write input: %v", err)
	}
	time.Sleep(50 * time.Millisecond) // let the room drain the input and broadcast

	second := dialInto(t, r, 21, 201)
	defer second.Close()
	readAck(t, second)

	second.SetReadDeadline(time.Now().Add(time.Second))
	pkt, err := transport.ReadPacket(second)
	if err != nil {
		t.Fatalf("read catch-up batch: %v", err)
	}
	if pkt.ID != wire.ID_StateBatch {
		t.Fatalf("packet id = %s, want ID_StateBatch", pkt.ID)
	}
	var batch wire.StateBatchMsg
	if err := pkt.Unmarshal(&batch); err != nil {
		t.Fatalf("unmarshal batch: %v", err)
	}
	if len(batch.GetStates()) == 0 {
		t.Fatalf("expected at least one backlogged state, got none")
	}
	if batch.GetStates()[0].GetControllerConnectionId() != 20 {
		t.Fatalf("backlogged state conn id = %d, want 20", batch.GetStates()[0].GetControllerConnectionId())
	}
}

func TestBroadcastSkipsPeerThatHasGoneQuiet(t *testing.T) {
	r := newTestRoom(t)
	owner := dialInto(t, r, 10, 100)
	defer owner.Close()
	readAck(t, owner)

	observer := dialInto(t, r, 11, 101)
	defer observer.Close()
	readAck(t, observer)

	// The bad-network threshold is measured against real wall-clock time,
	// so waiting past it here means actually sleeping past it.
	time.Sleep(2200 * time.Millisecond)

	msg := &wire.InputMsg{
		ControllerConnectionId: proto.Uint64(10),
		Current:                &wire.InputData{Tick: proto.Uint32(1), Payload: []byte(`{"x":1}`)},
	}
	if _, err := owner.Write(transport.NewPacket(wire.ID_Input, msg).Serialize()); err != nil {
		t.Fatalf("write input: %v", err)
	}

	observer.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := transport.ReadPacket(observer); err == nil {
		t.Fatalf("observer that went quiet still received a broadcast")
	}
}
