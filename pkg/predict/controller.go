package predict

import (
	"github.com/pulsegrid/predictsync/pkg/interp"
	"github.com/pulsegrid/predictsync/pkg/mathx"
	"github.com/pulsegrid/predictsync/pkg/ringbuf"
	"github.com/pulsegrid/predictsync/pkg/sim"
	"github.com/pulsegrid/predictsync/pkg/smooth"
)

// Controller owns one entity's per-connection history and implements the
// predict / send / reconcile / replay state machine of spec.md §4.2. A
// Controller never learns about the network directly; it emits through Sink
// and is fed authoritative state and remote input through its own methods,
// so it can be driven and tested without any transport.
type Controller struct {
	identity Identity
	role     Role
	opts     Options

	simulator sim.Simulator
	ctx       RuntimeContext
	sink      Sink

	tickInterval float64

	inputHistory *ringbuf.RingHistory[sim.Input]
	stateHistory *ringbuf.RingHistory[sim.Snapshot]

	smoother     *smooth.VisualSmoother
	interpolator *interp.RemoteInterpolator

	previousInput     sim.Input
	havePreviousInput bool

	lastReconciledTick uint32
	haveReconciled     bool

	hostQueue *hostProxyQueue

	ackTick func(uint32)

	lastRenderedPos mathx.Vec3
	lastRenderedRot mathx.Quat
}

// NewController constructs a Dormant controller for identity. tickInterval
// is the scene-wide fixed simulation step (spec.md §4.1 TickInterval);
// ackTick is invoked during reconciliation to acknowledge the coordinator's
// clock (spec.md §4.2 step 2) and may be nil in tests that don't care.
func NewController(identity Identity, opts Options, simulator sim.Simulator, ctx RuntimeContext, tickInterval float64, ackTick func(uint32)) *Controller {
	opts = opts.normalize()
	c := &Controller{
		identity:     identity,
		role:         RoleDormant,
		opts:         opts,
		simulator:    simulator,
		ctx:          ctx,
		tickInterval: tickInterval,
		ackTick:      ackTick,
		smoother:     smooth.New(opts.Smoother),
		interpolator: interp.New(opts.Interpolator),
	}
	c.inputHistory = ringbuf.New[sim.Input](opts.HistorySize)
	c.stateHistory = ringbuf.New[sim.Snapshot](opts.HistorySize)
	return c
}

// Identity returns this controller's identity.
func (c *Controller) Identity() Identity { return c.identity }

// Role returns this controller's current role.
func (c *Controller) Role() Role { return c.role }

// SetSink installs the network sink used to emit input/state traffic.
func (c *Controller) SetSink(sink Sink) { c.sink = sink }

// Rendered returns the transform computed by the most recent UpdateVisuals
// call, for the application's render loop to consume.
func (c *Controller) Rendered() (mathx.Vec3, mathx.Quat) { return c.lastRenderedPos, c.lastRenderedRot }

// VisualOffsetMagnitude reports the current smoothing offset's length, for
// dashboards and diagnostics (spec.md §8's non-increasing-between-
// reconciliations property lives on smooth.VisualSmoother; this just
// exposes it per controller).
func (c *Controller) VisualOffsetMagnitude() float64 {
	if c.smoother == nil {
		return 0
	}
	return c.smoother.Magnitude()
}

// TransitionTo moves the controller into a new role, re-initializing the
// histories owned by that role (spec.md §4.2 "State machine": "Transitions
// into a state re-initialize the corresponding histories; transitions out
// do not destroy history already captured").
func (c *Controller) TransitionTo(role Role) {
	if c.role == role {
		return
	}
	c.role = role
	switch role {
	case RoleLocalHost, RoleLocalClient:
		c.inputHistory.Reset()
		c.stateHistory.Reset()
		c.lastReconciledTick = 0
		c.haveReconciled = false
		c.previousInput = sim.Input{}
		c.havePreviousInput = false
		c.smoother.Reset()
	case RoleProxiedHost:
		c.hostQueue = newHostProxyQueue(c.opts.HistorySize)
	case RoleRemoteObserver:
		c.interpolator.Reset()
	}
}

// Simulate runs one local prediction step (spec.md §4.2 "simulate()"). Only
// meaningful for RoleLocalHost and RoleLocalClient; a no-op otherwise.
func (c *Controller) Simulate(currentTick uint32, dt float64) {
	if !c.role.IsLocal() {
		return
	}

	payload := c.simulator.BuildInput()
	input := sim.Input{Tick: currentTick, Payload: payload}
	c.simulator.Simulate(payload, dt)
	pos, rot, statePayload := c.simulator.WriteState()
	snapshot := sim.Snapshot{Tick: currentTick, WallTime: c.wallNow(), Position: pos, Rotation: rot, Payload: statePayload}

	switch c.role {
	case RoleLocalHost:
		c.stateHistory.Push(snapshot)
		if c.sink != nil {
			c.sink.SendObserverState(snapshot)
		}
	case RoleLocalClient:
		c.inputHistory.Push(input)
		c.stateHistory.Push(snapshot)
		if c.sink != nil {
			c.sink.SendInput(InputPair{Current: input, Previous: c.previousInput, HavePrevious: c.havePreviousInput})
		}
	}
	c.previousInput = input
	c.havePreviousInput = true
}

// EnqueueInput feeds a remote client's {I, I_prev} pair into this host
// proxy's input queue. Only meaningful for RoleProxiedHost.
func (c *Controller) EnqueueInput(pair InputPair) {
	if c.role != RoleProxiedHost || c.hostQueue == nil {
		return
	}
	c.hostQueue.OnInputArrival(pair)
}

// ProcessInputQueue drains up to MaxInputsPerTick queued inputs, filling
// gaps with the last-known input and broadcasting one snapshot per consumed
// input (spec.md §4.2 "Host-proxy input handling"). Only meaningful for
// RoleProxiedHost.
func (c *Controller) ProcessInputQueue(dt, wallNow float64) {
	if c.role != RoleProxiedHost || c.hostQueue == nil {
		return
	}
	q := c.hostQueue

	for consumed := 0; consumed < c.opts.MaxInputsPerTick; consumed++ {
		in, ok := q.dequeue()
		if !ok {
			break
		}

		if q.haveServerTick && in.Tick < q.serverTick {
			continue // strictly-old relative to the next tick to simulate, drop
		}

		if q.haveServerTick {
			for q.serverTick < in.Tick {
				c.simulator.Simulate(q.lastServerInput.Payload, dt)
				q.serverTick++
			}
		}

		c.simulator.Simulate(in.Payload, dt)
		pos, rot, payload := c.simulator.WriteState()
		snapshot := sim.Snapshot{Tick: in.Tick, WallTime: wallNow, Position: pos, Rotation: rot, Payload: payload}

		q.lastServerInput = in
		q.haveLastServerInput = true
		q.serverTick = in.Tick + 1
		q.haveServerTick = true

		if c.sink != nil {
			c.sink.SendOwnerState(snapshot)
			c.sink.SendObserverState(snapshot)
		}
	}
}

// OnAuthoritativeState delivers a host-produced snapshot to this
// controller: reconciliation on the owning client, buffering on an
// observer, ignored otherwise.
func (c *Controller) OnAuthoritativeState(snapshot sim.Snapshot) {
	switch c.role {
	case RoleLocalClient:
		c.Reconcile(snapshot)
	case RoleRemoteObserver:
		c.interpolator.Insert(snapshot)
	}
}

// UpdateVisuals runs the per-frame visual pass (spec.md §4.2
// "updateVisuals()"): observers advance RemoteInterpolator, local
// controllers decay their VisualSmoother offset. The result is cached and
// retrievable via Rendered.
func (c *Controller) UpdateVisuals(wallNow, dt float64) (mathx.Vec3, mathx.Quat) {
	switch c.role {
	case RoleRemoteObserver:
		if c.interpolator.Len() == 0 {
			c.lastRenderedPos, c.lastRenderedRot = mathx.Vec3{}, mathx.IdentityQuat
			break
		}
		pos, rot, _ := c.interpolator.Render(wallNow)
		c.lastRenderedPos, c.lastRenderedRot = pos, rot
	case RoleLocalHost, RoleLocalClient:
		c.smoother.Decay(dt)
		pos, rot, _ := c.simulator.WriteState()
		c.lastRenderedPos, c.lastRenderedRot = c.smoother.Apply(pos, rot)
	default:
		pos, rot, _ := c.simulator.WriteState()
		c.lastRenderedPos, c.lastRenderedRot = pos, rot
	}
	return c.lastRenderedPos, c.lastRenderedRot
}

func (c *Controller) wallNow() float64 {
	if c.ctx.WallNow == nil {
		return 0
	}
	return c.ctx.WallNow()
}
