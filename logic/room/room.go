// Package room implements one authoritative match: a single-threaded
// select loop, in the shape of the teacher's logic/room.Room, driving a
// predict.TickCoordinator instead of a lockstep frame broadcaster.
package room

import (
	"sync"
	"sync/atomic"
	"time"

	l4g "github.com/alecthomas/log4go"
	proto "github.com/golang/protobuf/proto"

	"github.com/pulsegrid/predictsync/logic/session"
	"github.com/pulsegrid/predictsync/pkg/clock"
	"github.com/pulsegrid/predictsync/pkg/dashboard"
	"github.com/pulsegrid/predictsync/pkg/log4gox"
	"github.com/pulsegrid/predictsync/pkg/predict"
	"github.com/pulsegrid/predictsync/pkg/ratelimit"
	"github.com/pulsegrid/predictsync/pkg/sim"
	"github.com/pulsegrid/predictsync/pkg/transport"
	"github.com/pulsegrid/predictsync/pkg/wire"
)

// TimeoutTime is how long a room with no traffic at all — no join, no
// message — stays alive before it tears itself down, matching the
// teacher's idle-room timeout.
const TimeoutTime = 5 * time.Minute

// dashboardPeriod is how often, at most, a room pushes a dashboard
// snapshot; independent of the simulation tick rate so a slow spectator
// feed never competes with gameplay traffic.
const dashboardPeriod = 200 * time.Millisecond

// maxStatesPerBatch caps how many StateMsg entries go into one
// StateBatchMsg during a reconnection catch-up send, mirroring the
// teacher's kMaxFrameDataPerMsg.
const maxStatesPerBatch = 64

// ConnIdentity is stashed on a transport.Conn once its handshake succeeds
// (spec.md §4.5), carrying both the room-assigned controllerConnectionId
// and the token-verified entity id it controls.
type ConnIdentity struct {
	ConnID   uint64
	EntityID uint64
}

// SimulatorFactory constructs the application's deterministic Simulator for
// one entity, mirroring the teacher's per-player game object construction
// in logic/game.NewPlayer.
type SimulatorFactory func(identity predict.Identity) sim.Simulator

type inboundMsg struct {
	connID uint64
	pkt    *transport.Packet
}

// Room is one authoritative match: a predict.TickCoordinator plus the
// transport plumbing that feeds it, replacing the teacher's Room+Game
// pairing with the prediction/reconciliation core.
type Room struct {
	wg sync.WaitGroup

	roomID    uint64
	closeFlag int32
	timeStamp int64

	tickInterval time.Duration
	router       *transport.Router
	coordinator  *predict.TickCoordinator
	predictOpts  predict.Options
	simFactory   SimulatorFactory
	codec        session.Codec
	dashboardHub *dashboard.Hub
	inputRate    float64
	inputBurst   int

	sessions    map[uint64]*session.Session
	stateBuffer *remoteStateBuffer

	exitChan chan struct{}
	msgQ     chan inboundMsg
	inChan   chan *transport.Conn
	outChan  chan *transport.Conn
}

// NewRoom constructs a Room bound to id, ready to accept connections once
// Run is started in its own goroutine. inputRate/inputBurst bound each
// connection's inbound input rate (spec.md-adjacent flood protection,
// SPEC_FULL.md §B); zero/negative values fall back to
// ratelimit.NewTickBudget's own coercion.
func NewRoom(id uint64, clockOpts clock.Options, predictOpts predict.Options, simFactory SimulatorFactory, codec session.Codec, inputRate float64, inputBurst int) *Room {
	coordinator := predict.NewTickCoordinator(clockOpts, true)
	router := transport.NewRouter()
	r := &Room{
		roomID:       id,
		tickInterval: time.Duration(coordinator.Clock().Options().TickInterval * float64(time.Second)),
		router:       router,
		coordinator:  coordinator,
		predictOpts:  predictOpts,
		simFactory:   simFactory,
		codec:        codec,
		inputRate:    inputRate,
		inputBurst:   inputBurst,
		sessions:     make(map[uint64]*session.Session),
		stateBuffer:  newRemoteStateBuffer(predictOpts.HistorySize),
		exitChan:     make(chan struct{}),
		msgQ:         make(chan inboundMsg, 2048),
		inChan:       make(chan *transport.Conn, 8),
		outChan:      make(chan *transport.Conn, 8),
		timeStamp:    time.Now().Unix(),
	}
	router.SetQuietCheck(r.isQuietConn)
	return r
}

// isQuietConn reports whether connID's session has gone without a heartbeat
// long enough that the router should stop delivering state to it. Called
// only from Router.Send, which this Room's own goroutine drives, so no
// locking is needed around r.sessions here.
func (r *Room) isQuietConn(connID uint64) bool {
	sess, ok := r.sessions[connID]
	if !ok {
		return false
	}
	return sess.IsQuiet(nowSeconds())
}

// ID returns the room id.
func (r *Room) ID() uint64 { return r.roomID }

// IsOver reports whether the room's main loop has exited.
func (r *Room) IsOver() bool { return atomic.LoadInt32(&r.closeFlag) != 0 }

// SetDashboard wires an optional read-only spectator feed; nil disables it.
func (r *Room) SetDashboard(hub *dashboard.Hub) { r.dashboardHub = hub }

// OnConnect is the transport.Callback hook invoked once the server-level
// router has verified the peer's token and stashed a ConnIdentity on conn.
func (r *Room) OnConnect(conn *transport.Conn) bool {
	conn.SetCallback(r) // legal only from within OnConnect, per transport.Conn's contract.
	r.inChan <- conn
	return true
}

// OnMessage is the transport.Callback hook for every subsequent packet.
func (r *Room) OnMessage(conn *transport.Conn, pkt *transport.Packet) bool {
	id, ok := conn.GetExtraData().(ConnIdentity)
	if !ok {
		l4g.Error("[room(%d)] message from connection without identity", r.roomID)
		return false
	}
	select {
	case r.msgQ <- inboundMsg{connID: id.ConnID, pkt: pkt}:
	default:
		l4g.Warn("[room(%d)] msgQ full, dropping id=%s from conn=%d", r.roomID, pkt.ID, id.ConnID)
	}
	return true
}

// OnClose is the transport.Callback hook for disconnects.
func (r *Room) OnClose(conn *transport.Conn) {
	r.outChan <- conn
}

// Run is the room's single-threaded main loop: every mutation of the
// coordinator, router, and sessions map happens on this one goroutine,
// matching the teacher's select-driven Room.Run.
func (r *Room) Run() {
	r.wg.Add(1)
	defer r.wg.Done()
	defer atomic.StoreInt32(&r.closeFlag, 1)
	defer l4g.Info("[room(%d)] quit, total time=%ds", r.roomID, time.Now().Unix()-r.timeStamp)

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	dashTicker := time.NewTicker(dashboardPeriod)
	defer dashTicker.Stop()

	timeout := time.NewTimer(TimeoutTime)
	defer timeout.Stop()

	lastFrame := time.Now()

	l4g.Info("[room(%d)] running, tick=%s", r.roomID, r.tickInterval)

LOOP:
	for {
		select {
		case <-r.exitChan:
			l4g.Warn("[room(%d)] force exit", r.roomID)
			return
		case <-timeout.C:
			l4g.Warn("[room(%d)] idle timeout", r.roomID)
			break LOOP
		case msg := <-r.msgQ:
			r.dispatch(msg.connID, msg.pkt)
			timeout.Reset(TimeoutTime)
		case now := <-ticker.C:
			frameDelta := now.Sub(lastFrame).Seconds()
			lastFrame = now
			r.coordinator.Advance(frameDelta, secondsSince(now))
		case now := <-dashTicker.C:
			r.publishDashboard(now)
		case conn := <-r.inChan:
			r.handleJoin(conn)
			timeout.Reset(TimeoutTime)
		case conn := <-r.outChan:
			r.handleLeave(conn)
		}
	}

	for id, sess := range r.sessions {
		sess.Conn().Close()
		delete(r.sessions, id)
	}
}

// Stop force-closes the room and waits for Run to return.
func (r *Room) Stop() {
	close(r.exitChan)
	r.wg.Wait()
}

func (r *Room) handleJoin(conn *transport.Conn) {
	id, ok := conn.GetExtraData().(ConnIdentity)
	if !ok {
		l4g.Error("[room(%d)] join without identity", r.roomID)
		conn.Close()
		return
	}

	identity := predict.Identity{EntityID: id.EntityID, ControllerConnectionID: id.ConnID}
	sess := session.New(conn, r.router, r.codec, identity)
	sess.SetInputBudget(ratelimit.NewTickBudget(r.inputRate, r.inputBurst))
	sess.TouchHeartbeat(nowSeconds())
	sess.SetBroadcastRecorder(r.stateBuffer.push)
	r.router.Register(id.ConnID, conn)
	r.sessions[id.ConnID] = sess

	ctrl, exists := r.coordinator.Lookup(id.EntityID)
	if !exists {
		simulator := r.simFactory(identity)
		ctrl = predict.NewController(identity, r.predictOpts, simulator, predict.RuntimeContext{
			IsHost:  true,
			WallNow: nowSeconds,
		}, r.coordinator.Clock().Options().TickInterval, r.coordinator.AcknowledgeTick)
		r.coordinator.Register(ctrl)
	}
	ctrl.SetSink(sess)
	ctrl.TransitionTo(predict.RoleProxiedHost)

	ack := &wire.ConnectAckMsg{
		ErrorCode:              proto.Int32(int32(wire.ErrorCode_OK)),
		ControllerConnectionId: proto.Uint64(id.ConnID),
	}
	conn.AsyncWritePacket(transport.NewPacket(wire.ID_ConnectAck, ack), time.Millisecond)
	r.sendCatchUp(conn)

	roleTag := log4gox.Colorize(log4gox.ColorForRole(ctrl.Role().String()), ctrl.Role().String())
	l4g.Info("[room(%d)] entity=%d conn=%d joined role=%s", r.roomID, id.EntityID, id.ConnID, roleTag)
}

// sendCatchUp flushes the room's retained backlog of recent observer-channel
// states to a newly joined connection, batched at maxStatesPerBatch entries
// per packet the way the teacher batches kMaxFrameDataPerMsg frames during
// doReconnect.
func (r *Room) sendCatchUp(conn *transport.Conn) {
	backlog := r.stateBuffer.snapshot()
	for i := 0; i < len(backlog); i += maxStatesPerBatch {
		end := i + maxStatesPerBatch
		if end > len(backlog) {
			end = len(backlog)
		}
		batch := &wire.StateBatchMsg{States: backlog[i:end]}
		conn.AsyncWritePacket(transport.NewPacket(wire.ID_StateBatch, batch), time.Millisecond)
	}
}

func (r *Room) handleLeave(conn *transport.Conn) {
	id, ok := conn.GetExtraData().(ConnIdentity)
	if !ok {
		return
	}
	r.router.Unregister(id.ConnID)
	delete(r.sessions, id.ConnID)
	r.coordinator.Unregister(id.EntityID)
	l4g.Info("[room(%d)] entity=%d conn=%d left", r.roomID, id.EntityID, id.ConnID)
}

func (r *Room) dispatch(connID uint64, pkt *transport.Packet) {
	sess, ok := r.sessions[connID]
	if !ok {
		l4g.Debug("[room(%d)] msg from unknown conn=%d", r.roomID, connID)
		return
	}

	switch pkt.ID {
	case wire.ID_Input:
		if !sess.AllowInput() {
			l4g.Debug("[room(%d)] input budget exceeded conn=%d, dropping", r.roomID, connID)
			return
		}
		var msg wire.InputMsg
		if err := pkt.Unmarshal(&msg); err != nil {
			l4g.Error("[room(%d)] unmarshal input conn=%d: %v", r.roomID, connID, err)
			return
		}
		ctrl, ok := r.coordinator.Lookup(sess.Identity().EntityID)
		if !ok {
			return
		}
		ctrl.EnqueueInput(sess.DecodeInputPair(&msg))
	case wire.ID_Heartbeat:
		sess.TouchHeartbeat(nowSeconds())
		sess.Conn().AsyncWritePacket(transport.NewPacket(wire.ID_Heartbeat, nil), time.Millisecond)
	default:
		l4g.Debug("[room(%d)] unhandled msg id=%s conn=%d", r.roomID, pkt.ID, connID)
	}
}

func (r *Room) publishDashboard(now time.Time) {
	if r.dashboardHub == nil || r.dashboardHub.ClientCount() == 0 {
		return
	}

	snap := dashboard.Snapshot{
		RoomID:     r.roomID,
		ServerTick: r.coordinator.Clock().ServerTick(),
	}
	for connID, sess := range r.sessions {
		ctrl, ok := r.coordinator.Lookup(sess.Identity().EntityID)
		if !ok {
			continue
		}
		snap.Controllers = append(snap.Controllers, dashboard.ControllerSnapshot{
			EntityID:               sess.Identity().EntityID,
			ControllerConnectionID: connID,
			Role:                   ctrl.Role().String(),
			Tick:                   r.coordinator.Clock().CurrentTick(),
			VisualOffsetMagnitude:  ctrl.VisualOffsetMagnitude(),
		})
	}
	r.dashboardHub.Broadcast(snap)
}

func nowSeconds() float64 { return secondsSince(time.Now()) }

func secondsSince(t time.Time) float64 { return float64(t.UnixNano()) / 1e9 }
