// predictsync-client is a demonstration client: it performs the connect
// handshake, then drives a single demo.Mover under a client-role
// predict.Controller directly (a real client typically drives its
// TickCoordinator/entity registry the same way logic/room does on the
// host side; a demo with exactly one controlled entity has no need for
// one), printing predicted position each tick so prediction and
// reconciliation can be watched end to end.
package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	proto "github.com/golang/protobuf/proto"

	"github.com/pulsegrid/predictsync/pkg/clock"
	"github.com/pulsegrid/predictsync/pkg/demo"
	"github.com/pulsegrid/predictsync/pkg/mathx"
	"github.com/pulsegrid/predictsync/pkg/predict"
	"github.com/pulsegrid/predictsync/pkg/sim"
	"github.com/pulsegrid/predictsync/pkg/transport"
	"github.com/pulsegrid/predictsync/pkg/wire"
)

var (
	addr     = flag.String("udp", "127.0.0.1:10086", "host udp address")
	tokenURL = flag.String("token-url", "http://127.0.0.1:8080/token", "web api base used to mint a demo token")
	room     = flag.Uint64("room", 1, "room id")
	entity   = flag.Uint64("entity", 1, "entity id this client controls")
)

func main() {
	flag.Parse()

	token, err := fetchToken(*tokenURL, *room, *entity)
	if err != nil {
		panic(fmt.Sprintf("fetch token: %v", err))
	}

	conn, err := transport.DialKCP(*addr)
	if err != nil {
		panic(err)
	}
	defer conn.Close()

	connID, err := handshake(conn, token, *entity)
	if err != nil {
		panic(fmt.Sprintf("handshake: %v", err))
	}
	fmt.Println("connected: entity", *entity, "conn", connID)

	mover := demo.NewMover(4.0)
	clk := clock.New(clock.DefaultOptions(), false)
	identity := predict.Identity{EntityID: *entity, ControllerConnectionID: connID}
	ctrl := predict.NewController(identity, predict.DefaultOptions(), mover, predict.RuntimeContext{
		WallNow: wallNow,
	}, clk.Options().TickInterval, clk.AcknowledgeTick)
	ctrl.SetSink(&wireSink{conn: conn, codec: demo.Codec{}, identity: identity})
	ctrl.TransitionTo(predict.RoleLocalClient)

	go readLoop(conn, ctrl, clk, connID)
	go sendHeartbeats(conn, heartbeatInterval)

	mover.SetDesiredInput(demo.Input{MoveX: 1})

	ticker := time.NewTicker(time.Duration(clk.Options().TickInterval * float64(time.Second)))
	defer ticker.Stop()
	lastFrame := time.Now()
	for now := range ticker.C {
		frameDelta := now.Sub(lastFrame).Seconds()
		lastFrame = now
		dt := clk.Options().TickInterval
		clk.Drain(frameDelta, func(tick uint32) { ctrl.Simulate(tick, dt) })
		pos, _ := ctrl.UpdateVisuals(wallNow(), dt)
		fmt.Printf("tick=%d pos=(%.2f,%.2f,%.2f)\n", clk.CurrentTick(), pos.X, pos.Y, pos.Z)
	}
}

// heartbeatInterval is well under the host's badNetworkThreshold (2s) so a
// missed send or two doesn't get this connection treated as quiet.
const heartbeatInterval = 500 * time.Millisecond

// sendHeartbeats keeps the host's Session.lastHeartbeatWall fresh so
// Room.isQuietConn never suppresses this client's reconciliation and
// observer broadcasts (logic/session.Session.IsQuiet).
func sendHeartbeats(conn net.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if _, err := conn.Write(transport.NewPacket(wire.ID_Heartbeat, nil).Serialize()); err != nil {
			fmt.Println("heartbeat write error:", err)
			return
		}
	}
}

// handshake sends the ConnectMsg and blocks for the ConnectAckMsg,
// returning the room-assigned controllerConnectionId.
func handshake(conn net.Conn, token string, entityID uint64) (uint64, error) {
	connectMsg := &wire.ConnectMsg{Token: proto.String(token), EntityId: proto.Uint64(entityID)}
	if _, err := conn.Write(transport.NewPacket(wire.ID_Connect, connectMsg).Serialize()); err != nil {
		return 0, err
	}

	pkt, err := transport.ReadPacket(conn)
	if err != nil {
		return 0, err
	}
	var ack wire.ConnectAckMsg
	if err := pkt.Unmarshal(&ack); err != nil {
		return 0, err
	}
	if code := wire.ErrorCode(ack.GetErrorCode()); code != wire.ErrorCode_OK {
		return 0, fmt.Errorf("rejected: code=%d", code)
	}
	return ack.GetControllerConnectionId(), nil
}

// readLoop delivers every host-authoritative state to the controller for
// reconciliation, and drives this process's clock off the same ticks
// (spec.md §4.1's updateServerTick), until the connection closes. connID
// is this client's own controllerConnectionId, used to pick this client's
// own entries out of a reconnection catch-up batch (this demo drives only
// one local entity and has no remote-entity registry to hand anyone else's
// entries to).
func readLoop(conn net.Conn, ctrl *predict.Controller, clk *clock.Clock, connID uint64) {
	codec := demo.Codec{}
	for {
		pkt, err := transport.ReadPacket(conn)
		if err != nil {
			if err != io.EOF {
				fmt.Println("read loop error:", err)
			}
			return
		}
		switch pkt.ID {
		case wire.ID_State:
			var msg wire.StateMsg
			if err := pkt.Unmarshal(&msg); err != nil {
				continue
			}
			clk.UpdateServerTick(msg.GetTick())
			ctrl.OnAuthoritativeState(decodeSnapshot(&msg, codec))
		case wire.ID_StateBatch:
			var batch wire.StateBatchMsg
			if err := pkt.Unmarshal(&batch); err != nil {
				continue
			}
			for _, msg := range batch.GetStates() {
				if msg.GetControllerConnectionId() != connID {
					continue
				}
				clk.UpdateServerTick(msg.GetTick())
				ctrl.OnAuthoritativeState(decodeSnapshot(msg, codec))
			}
		}
	}
}

func decodeSnapshot(msg *wire.StateMsg, codec demo.Codec) sim.Snapshot {
	return sim.Snapshot{
		Tick:     msg.GetTick(),
		WallTime: wallNow(),
		Position: mathx.Vec3{X: msg.GetPosX(), Y: msg.GetPosY(), Z: msg.GetPosZ()},
		Rotation: mathx.Quat{X: msg.GetRotX(), Y: msg.GetRotY(), Z: msg.GetRotZ(), W: msg.GetRotW()},
		Payload:  codec.DecodeState(msg.GetPayload()),
	}
}

func wallNow() float64 { return float64(time.Now().UnixNano()) / 1e9 }

func fetchToken(baseURL string, roomID, entityID uint64) (string, error) {
	resp, err := http.Get(fmt.Sprintf("%s?room=%d&entity=%d", baseURL, roomID, entityID))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// wireSink implements predict.Sink directly over the raw connection: a
// client only ever has one peer (the host), so it needs none of
// logic/session.Session's routing-filter machinery.
type wireSink struct {
	conn     net.Conn
	codec    demo.Codec
	identity predict.Identity
}

func (s *wireSink) SendInput(pair predict.InputPair) {
	msg := &wire.InputMsg{
		ControllerConnectionId: proto.Uint64(s.identity.ControllerConnectionID),
		Current:                &wire.InputData{Tick: proto.Uint32(pair.Current.Tick), Payload: s.codec.EncodeInput(pair.Current.Payload)},
	}
	if pair.HavePrevious {
		msg.Previous = &wire.InputData{Tick: proto.Uint32(pair.Previous.Tick), Payload: s.codec.EncodeInput(pair.Previous.Payload)}
	}
	s.write(transport.NewPacket(wire.ID_Input, msg))
}

// SendOwnerState and SendObserverState are never called for RoleLocalClient
// (predict.Controller.Simulate only calls SendInput in that role); they
// exist to satisfy predict.Sink.
func (s *wireSink) SendOwnerState(sim.Snapshot)    {}
func (s *wireSink) SendObserverState(sim.Snapshot) {}

func (s *wireSink) write(pkt *transport.Packet) {
	if pkt == nil {
		return
	}
	if _, err := s.conn.Write(pkt.Serialize()); err != nil {
		fmt.Println("write error:", err)
	}
}
