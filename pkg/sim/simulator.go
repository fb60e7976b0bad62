// Package sim defines the capability contract the prediction core requires
// from the application, per spec.md §6 "To the application (Simulator
// capability set)". The core never discovers a Simulator by reflection or
// component lookup (spec.md §9); it is handed one explicitly at
// construction time.
package sim

import "github.com/pulsegrid/predictsync/pkg/mathx"

// Input is one tick's worth of application-defined control data, stamped
// with the tick it was built for (spec.md §3 Input record).
type Input struct {
	Tick    uint32
	Payload any
}

// TickNumber satisfies ringbuf.Ticked.
func (i Input) TickNumber() uint32 { return i.Tick }

// Snapshot is the application's simulation state at the end of a tick
// (spec.md §3 State snapshot). WallTime is the local wall-clock time the
// snapshot was captured, used by RemoteInterpolator; it is not part of
// application determinism.
type Snapshot struct {
	Tick     uint32
	WallTime float64
	Position mathx.Vec3
	Rotation mathx.Quat
	Payload  any
}

// TickNumber satisfies ringbuf.Ticked.
func (s Snapshot) TickNumber() uint32 { return s.Tick }

// WithinTolerance implements the tolerance-based equality predicate spec.md
// §3 requires of State snapshots: positions within tol, rotation ignored
// (rotation drift alone does not trigger reconciliation in this design,
// matching spec.md §4.2's algorithm which only compares P and S via this
// predicate before falling through to a full state overwrite on mismatch).
func (s Snapshot) WithinTolerance(other Snapshot, tol float64) bool {
	return s.Position.Distance(other.Position) <= tol
}

// Simulator is the pluggable, deterministic per-tick step the application
// provides. Every method must be a pure function of its arguments and any
// state the application chooses to hold — no wall-clock reads, no I/O —
// so that replay during reconciliation reproduces the original prediction
// exactly (spec.md §4.2 "Simulation step contract").
type Simulator interface {
	// BuildInput produces the current frame's input payload. Called once
	// per tick by a local (host or client) controller before Simulate.
	BuildInput() any

	// Simulate advances application state by exactly dt (which the core
	// always passes as TickInterval, never the real frame delta) given the
	// supplied input payload.
	Simulate(input any, dt float64)

	// WriteState captures the application's current simulation state into
	// a snapshot payload, position and rotation.
	WriteState() (position mathx.Vec3, rotation mathx.Quat, payload any)

	// ReadState restores application state from a previously captured
	// snapshot. Used by a client rewinding to a corrected snapshot during
	// reconciliation.
	ReadState(position mathx.Vec3, rotation mathx.Quat, payload any)
}

// Reconciler is an optional capability a Simulator may additionally
// implement: a callback invoked once per correction so the application can
// cancel predicted side effects (spec.md §6, §7: "the only
// application-facing failure signal").
type Reconciler interface {
	OnReconcile(server, predicted Snapshot)
}
