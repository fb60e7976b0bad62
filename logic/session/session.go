// Package session binds one transport.Conn to a predict.Controller's
// identity and implements predict.Sink over the wire, the way the teacher's
// logic/game.Player binds one network.Conn to one lockstep frame slot.
package session

import (
	proto "github.com/golang/protobuf/proto"

	"github.com/pulsegrid/predictsync/pkg/mathx"
	"github.com/pulsegrid/predictsync/pkg/predict"
	"github.com/pulsegrid/predictsync/pkg/ratelimit"
	"github.com/pulsegrid/predictsync/pkg/sim"
	"github.com/pulsegrid/predictsync/pkg/transport"
	"github.com/pulsegrid/predictsync/pkg/wire"
)

// Codec turns an application's Input/Snapshot payload to and from bytes.
// The prediction core is payload-agnostic (spec.md §6); this is the seam an
// application plugs its own serialization into, kept out of pkg/predict so
// that package never depends on the wire.
type Codec interface {
	EncodeInput(payload any) []byte
	DecodeInput(data []byte) any
	EncodeState(payload any) []byte
	DecodeState(data []byte) any
}

// badNetworkThreshold is how long a session can go without a heartbeat
// before it is treated as having gone quiet, matching the teacher's
// kBadNetworkThreshold (2 seconds).
const badNetworkThreshold = 2.0

// Session is one connected peer's identity, codec, and outbound route. It
// implements predict.Sink so a Controller can be handed a Session directly
// as its sink.
type Session struct {
	conn     *transport.Conn
	router   transport.Sender
	codec    Codec
	identity predict.Identity

	heartbeatDeadline float64
	lastHeartbeatWall float64

	inputBudget *ratelimit.TickBudget

	onBroadcast func(*wire.StateMsg)
}

// New constructs a Session bound to conn, publishing through router with
// codec, for the given controller identity.
func New(conn *transport.Conn, router transport.Sender, codec Codec, identity predict.Identity) *Session {
	return &Session{conn: conn, router: router, codec: codec, identity: identity, heartbeatDeadline: badNetworkThreshold}
}

// Identity returns the bound controller identity.
func (s *Session) Identity() predict.Identity { return s.identity }

// SetInputBudget installs a per-connection token bucket bounding how
// often AllowInput reports true, so one flooding or catch-up-reconnecting
// peer cannot monopolize the host's per-tick input drain (spec.md §4.2's
// MaxInputsPerTick bounds the drain itself; this bounds arrival).
func (s *Session) SetInputBudget(b *ratelimit.TickBudget) { s.inputBudget = b }

// AllowInput reports whether the next inbound input packet from this peer
// should be accepted, consuming one token if so. Always true when no
// budget has been installed.
func (s *Session) AllowInput() bool {
	if s.inputBudget == nil {
		return true
	}
	return s.inputBudget.Allow()
}

// Conn exposes the underlying transport connection, e.g. for Close or
// RemoteAddr logging.
func (s *Session) Conn() *transport.Conn { return s.conn }

// TouchHeartbeat records that a heartbeat (or any traffic serving as one)
// was just seen from this peer, at the given wall-clock time.
func (s *Session) TouchHeartbeat(wallNow float64) { s.lastHeartbeatWall = wallNow }

// SecondsSinceHeartbeat reports how long it has been since the last
// heartbeat at wallNow, for bad-network / disconnect detection (spec.md §C,
// mirroring the teacher's kBadNetworkThreshold check).
func (s *Session) SecondsSinceHeartbeat(wallNow float64) float64 {
	return wallNow - s.lastHeartbeatWall
}

// IsQuiet reports whether this peer has gone without a heartbeat long
// enough that the host should stop broadcasting state to it, matching the
// teacher's broadcastFrameData check against kBadNetworkThreshold.
func (s *Session) IsQuiet(wallNow float64) bool {
	return s.SecondsSinceHeartbeat(wallNow) >= s.heartbeatDeadline
}

// SetBroadcastRecorder installs a hook invoked with every observer-channel
// state this session sends, before it goes out over the wire. A Room uses
// this to retain a catch-up backlog for later joiners (spec.md §C's
// RemoteStateBuffer); nil (the default) records nothing.
func (s *Session) SetBroadcastRecorder(fn func(*wire.StateMsg)) { s.onBroadcast = fn }

// SendInput implements predict.Sink: transmits a client's redundant input
// pair to the host's connection.
func (s *Session) SendInput(pair predict.InputPair) {
	msg := &wire.InputMsg{
		ControllerConnectionId: proto.Uint64(s.identity.ControllerConnectionID),
		Current:                s.encodeInput(pair.Current),
	}
	if pair.HavePrevious {
		msg.Previous = s.encodeInput(pair.Previous)
	}
	s.router.Send(transport.FilterHost, 0, transport.NewPacket(wire.ID_Input, msg))
}

// SendOwnerState implements predict.Sink: sends a host-processed snapshot
// to this controller's owning connection only, for reconciliation.
func (s *Session) SendOwnerState(snap sim.Snapshot) {
	pkt := transport.NewPacket(wire.ID_State, s.encodeState(snap))
	s.router.Send(transport.FilterOwner, s.identity.ControllerConnectionID, pkt)
}

// SendObserverState implements predict.Sink: broadcasts a host-processed
// snapshot to every other connected peer, for remote interpolation.
func (s *Session) SendObserverState(snap sim.Snapshot) {
	msg := s.encodeState(snap)
	if s.onBroadcast != nil {
		s.onBroadcast(msg)
	}
	s.router.Send(transport.FilterExcludeOwner, s.identity.ControllerConnectionID, transport.NewPacket(wire.ID_State, msg))
}

func (s *Session) encodeInput(in sim.Input) *wire.InputData {
	return &wire.InputData{Tick: proto.Uint32(in.Tick), Payload: s.codec.EncodeInput(in.Payload)}
}

func (s *Session) encodeState(snap sim.Snapshot) *wire.StateMsg {
	return &wire.StateMsg{
		ControllerConnectionId: proto.Uint64(s.identity.ControllerConnectionID),
		Tick:                   proto.Uint32(snap.Tick),
		WallTimeMillis:         proto.Int64(int64(snap.WallTime * 1000)),
		PosX:                   proto.Float64(snap.Position.X),
		PosY:                   proto.Float64(snap.Position.Y),
		PosZ:                   proto.Float64(snap.Position.Z),
		RotX:                   proto.Float64(snap.Rotation.X),
		RotY:                   proto.Float64(snap.Rotation.Y),
		RotZ:                   proto.Float64(snap.Rotation.Z),
		RotW:                   proto.Float64(snap.Rotation.W),
		Payload:                s.codec.EncodeState(snap.Payload),
	}
}

// DecodeInputPair converts a received wire.InputMsg into a predict.InputPair
// suitable for Controller.EnqueueInput.
func (s *Session) DecodeInputPair(msg *wire.InputMsg) predict.InputPair {
	pair := predict.InputPair{
		Current: sim.Input{
			Tick:    msg.GetCurrent().GetTick(),
			Payload: s.codec.DecodeInput(msg.GetCurrent().GetPayload()),
		},
	}
	if prev := msg.GetPrevious(); prev != nil {
		pair.Previous = sim.Input{Tick: prev.GetTick(), Payload: s.codec.DecodeInput(prev.GetPayload())}
		pair.HavePrevious = true
	}
	return pair
}

// DecodeState converts a received wire.StateMsg into a sim.Snapshot, stamped
// with wallNow for the receiving controller's use (reconciliation lookup or
// interpolation buffer insertion).
func (s *Session) DecodeState(msg *wire.StateMsg, wallNow float64) sim.Snapshot {
	return sim.Snapshot{
		Tick:     msg.GetTick(),
		WallTime: wallNow,
		Position: mathx.Vec3{X: msg.GetPosX(), Y: msg.GetPosY(), Z: msg.GetPosZ()},
		Rotation: mathx.Quat{X: msg.GetRotX(), Y: msg.GetRotY(), Z: msg.GetRotZ(), W: msg.GetRotW()},
		Payload:  s.codec.DecodeState(msg.GetPayload()),
	}
}
