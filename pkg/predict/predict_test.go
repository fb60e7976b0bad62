package predict

import (
	"testing"

	"github.com/pulsegrid/predictsync/pkg/mathx"
	"github.com/pulsegrid/predictsync/pkg/sim"
)

// fakeSimulator is a one-dimensional deterministic simulator: each tick it
// moves position.X by velocity*dt, where velocity is whatever BuildInput
// last returned (settable by the test).
type fakeSimulator struct {
	pos mathx.Vec3
	rot mathx.Quat

	velocity float64

	reconcileCalls int
	lastServer     sim.Snapshot
	lastPredicted  sim.Snapshot
}

func newFakeSimulator() *fakeSimulator {
	return &fakeSimulator{rot: mathx.IdentityQuat}
}

func (f *fakeSimulator) BuildInput() any { return f.velocity }

func (f *fakeSimulator) Simulate(input any, dt float64) {
	v := input.(float64)
	f.pos.X += v * dt
}

func (f *fakeSimulator) WriteState() (mathx.Vec3, mathx.Quat, any) {
	return f.pos, f.rot, nil
}

func (f *fakeSimulator) ReadState(pos mathx.Vec3, rot mathx.Quat, payload any) {
	f.pos = pos
	f.rot = rot
}

func (f *fakeSimulator) OnReconcile(server, predicted sim.Snapshot) {
	f.reconcileCalls++
	f.lastServer = server
	f.lastPredicted = predicted
}

type fakeSink struct {
	inputs         []InputPair
	ownerStates    []sim.Snapshot
	observerStates []sim.Snapshot
}

func (s *fakeSink) SendInput(p InputPair)                  { s.inputs = append(s.inputs, p) }
func (s *fakeSink) SendOwnerState(snap sim.Snapshot)        { s.ownerStates = append(s.ownerStates, snap) }
func (s *fakeSink) SendObserverState(snap sim.Snapshot)     { s.observerStates = append(s.observerStates, snap) }

func newTestController(role Role, opts Options) (*Controller, *fakeSimulator, *fakeSink) {
	sim := newFakeSimulator()
	sink := &fakeSink{}
	ctx := RuntimeContext{IsHost: role == RoleLocalHost || role == RoleProxiedHost, LocalConnectionID: 1, WallNow: func() float64 { return 0 }}
	c := NewController(Identity{EntityID: 1, ControllerConnectionID: 1}, opts, sim, ctx, 1.0/30.0, nil)
	c.SetSink(sink)
	c.TransitionTo(role)
	return c, sim, sink
}

func TestSimulateLocalClientPredictsAndSends(t *testing.T) {
	c, s, sink := newTestController(RoleLocalClient, DefaultOptions())
	s.velocity = 10

	c.Simulate(100, 1.0/30.0)

	if _, ok := c.stateHistory.Get(100); !ok {
		t.Fatalf("expected stateHistory to contain tick 100")
	}
	if _, ok := c.inputHistory.Get(100); !ok {
		t.Fatalf("expected inputHistory to contain tick 100")
	}
	if len(sink.inputs) != 1 {
		t.Fatalf("expected 1 sent input, got %d", len(sink.inputs))
	}
	if sink.inputs[0].HavePrevious {
		t.Fatalf("first tick should have no previous input")
	}
}

func TestSimulateLocalHostBroadcastsObserverState(t *testing.T) {
	c, _, sink := newTestController(RoleLocalHost, DefaultOptions())
	c.Simulate(1, 1.0/30.0)
	if len(sink.observerStates) != 1 {
		t.Fatalf("expected 1 broadcast observer state, got %d", len(sink.observerStates))
	}
	if len(sink.ownerStates) != 0 {
		t.Fatalf("local host should not send owner-channel packets to itself")
	}
}

func TestReconcilePerfectPredictionSkipsCallback(t *testing.T) {
	c, s, _ := newTestController(RoleLocalClient, DefaultOptions())
	s.velocity = 10
	c.Simulate(100, 1.0/30.0)

	predicted, _ := c.stateHistory.Get(100)
	server := sim.Snapshot{Tick: 100, Position: predicted.Position}

	c.Reconcile(server)

	if s.reconcileCalls != 0 {
		t.Fatalf("perfect prediction should not invoke OnReconcile, got %d calls", s.reconcileCalls)
	}
	if c.lastReconciledTick != 100 {
		t.Fatalf("lastReconciledTick = %d, want 100", c.lastReconciledTick)
	}
	if _, ok := c.stateHistory.Get(100); ok {
		t.Fatalf("acknowledged tick should be dropped from history")
	}
}

func TestReconcileHardCorrectionReplays(t *testing.T) {
	opts := DefaultOptions()
	c, s, _ := newTestController(RoleLocalClient, opts)
	s.velocity = 1

	for tick := uint32(100); tick <= 105; tick++ {
		c.Simulate(tick, 1.0/30.0)
	}

	predicted, ok := c.stateHistory.Get(100)
	if !ok {
		t.Fatalf("expected predicted snapshot at tick 100")
	}

	// The server corrects tick 100, so inputs 101..105 are replayed.
	server := sim.Snapshot{Tick: 100, Position: mathx.Vec3{X: predicted.Position.X - 5}}
	c.Reconcile(server)

	if s.reconcileCalls != 1 {
		t.Fatalf("expected OnReconcile to be invoked once, got %d", s.reconcileCalls)
	}
	if s.lastPredicted.Position != predicted.Position {
		t.Fatalf("OnReconcile predicted mismatch")
	}
	newest, ok := c.stateHistory.Newest()
	if !ok || newest.Tick != 105 {
		t.Fatalf("expected replayed history to end at tick 105, got %+v ok=%v", newest, ok)
	}
}

func TestReconcileZeroInputsStillSnaps(t *testing.T) {
	c, s, _ := newTestController(RoleLocalClient, DefaultOptions())
	s.velocity = 1
	c.Simulate(1, 1.0/30.0)

	server := sim.Snapshot{Tick: 1, Position: mathx.Vec3{X: 99}}
	c.Reconcile(server)

	if s.pos.X != 99 {
		t.Fatalf("expected simulator state snapped to server position, got %v", s.pos.X)
	}
	if s.reconcileCalls != 1 {
		t.Fatalf("expected 1 reconcile even with zero inputs to replay, got %d", s.reconcileCalls)
	}
}

func TestReconcileDropsOutOfOrderSnapshot(t *testing.T) {
	c, s, _ := newTestController(RoleLocalClient, DefaultOptions())
	s.velocity = 1
	for tick := uint32(1); tick <= 111; tick++ {
		c.Simulate(tick, 1.0/30.0)
	}
	predicted, _ := c.stateHistory.Get(110)
	c.Reconcile(sim.Snapshot{Tick: 110, Position: predicted.Position})

	before := s.reconcileCalls
	c.Reconcile(sim.Snapshot{Tick: 108, Position: mathx.Vec3{X: 1234}})

	if s.reconcileCalls != before {
		t.Fatalf("stale snapshot should be discarded without invoking OnReconcile")
	}
	if c.lastReconciledTick != 110 {
		t.Fatalf("lastReconciledTick should remain 110, got %d", c.lastReconciledTick)
	}
}

func TestReconcileDropsWhenHistoryAgedOut(t *testing.T) {
	opts := DefaultOptions()
	opts.HistorySize = 4
	c, _, _ := newTestController(RoleLocalClient, opts)
	for tick := uint32(1); tick <= 10; tick++ {
		c.Simulate(tick, 1.0/30.0)
	}
	// Tick 1 has long since been evicted from a 4-entry ring.
	c.Reconcile(sim.Snapshot{Tick: 1, Position: mathx.Vec3{}})
	if c.haveReconciled {
		t.Fatalf("reconcile against an aged-out tick should be dropped silently")
	}
}

func TestTransitionResetsHistoriesForLocalRoles(t *testing.T) {
	c, s, _ := newTestController(RoleLocalClient, DefaultOptions())
	s.velocity = 1
	c.Simulate(1, 1.0/30.0)
	if c.stateHistory.Len() == 0 {
		t.Fatalf("expected non-empty history before transition")
	}
	c.TransitionTo(RoleLocalHost)
	if c.stateHistory.Len() != 0 || c.inputHistory.Len() != 0 {
		t.Fatalf("transition into a local role should reset histories")
	}
}

func TestProcessInputQueueFillsGapAndBroadcasts(t *testing.T) {
	c, s, sink := newTestController(RoleProxiedHost, DefaultOptions())
	s.velocity = 0

	c.EnqueueInput(InputPair{Current: sim.Input{Tick: 10, Payload: 1.0}})
	c.ProcessInputQueue(1.0/30.0, 0)

	c.EnqueueInput(InputPair{Current: sim.Input{Tick: 13, Payload: 2.0}, Previous: sim.Input{Tick: 12, Payload: 1.0}, HavePrevious: true})
	c.ProcessInputQueue(1.0/30.0, 0)

	// Ticks 10, 12 (the redundant previous input) and 13 are each consumed
	// and sent; tick 11 is gap-filled without a send.
	if len(sink.ownerStates) != 3 {
		t.Fatalf("expected 3 owner-channel snapshots (one per consumed input), got %d", len(sink.ownerStates))
	}
	if len(sink.observerStates) != 3 {
		t.Fatalf("expected 3 observer-channel snapshots, got %d", len(sink.observerStates))
	}
	last := sink.ownerStates[len(sink.ownerStates)-1]
	if last.Tick != 13 {
		t.Fatalf("last processed tick = %d, want 13", last.Tick)
	}
}

func TestUpdateVisualsRemoteObserverRendersInterpolatedTargetWithoutJump(t *testing.T) {
	c, _, _ := newTestController(RoleRemoteObserver, DefaultOptions())

	c.OnAuthoritativeState(sim.Snapshot{Tick: 1, WallTime: 0, Position: mathx.Vec3{X: 10}, Rotation: mathx.IdentityQuat})
	c.OnAuthoritativeState(sim.Snapshot{Tick: 2, WallTime: 1, Position: mathx.Vec3{X: 20}, Rotation: mathx.IdentityQuat})

	pos, _ := c.UpdateVisuals(0.5, 1.0/30.0)

	if pos == (mathx.Vec3{}) {
		t.Fatalf("expected an interpolated position, got the origin (teleport flag inverted the render)")
	}
	if pos.X <= 10 || pos.X >= 20 {
		t.Fatalf("expected pos.X interpolated between 10 and 20, got %v", pos.X)
	}
}

func TestUpdateVisualsRemoteObserverWithNoBufferedStateRendersOrigin(t *testing.T) {
	c, _, _ := newTestController(RoleRemoteObserver, DefaultOptions())

	pos, rot := c.UpdateVisuals(0, 1.0/30.0)

	if pos != (mathx.Vec3{}) || rot != mathx.IdentityQuat {
		t.Fatalf("expected origin/identity with no buffered snapshots, got pos=%+v rot=%+v", pos, rot)
	}
}

func TestProcessInputQueueDropsStrictlyOldInput(t *testing.T) {
	c, s, sink := newTestController(RoleProxiedHost, DefaultOptions())
	s.velocity = 0

	c.EnqueueInput(InputPair{Current: sim.Input{Tick: 20, Payload: 0.0}})
	c.ProcessInputQueue(1.0/30.0, 0)

	c.EnqueueInput(InputPair{Current: sim.Input{Tick: 20, Payload: 0.0}})
	c.ProcessInputQueue(1.0/30.0, 0)

	if len(sink.ownerStates) != 1 {
		t.Fatalf("expected the duplicate/old input to be dropped, got %d sends", len(sink.ownerStates))
	}
}
