// Package smooth implements spec.md §4.4's VisualSmoother: a
// frame-rate-independent exponential decay of the position/rotation offset
// a Controller applies after a hard reconciliation, so the correction is
// visible-but-quick rather than an instant snap.
package smooth

import (
	"math"

	"github.com/pulsegrid/predictsync/pkg/mathx"
)

// Options configures a VisualSmoother.
type Options struct {
	// ErrorSmoothTime is the exponential decay time constant, in seconds.
	ErrorSmoothTime float64
	// Epsilon is the magnitude below which both offsets snap to identity.
	Epsilon float64
}

// DefaultOptions returns spec.md §6's default (ErrorSmoothTime = 0.1s).
func DefaultOptions() Options {
	return Options{ErrorSmoothTime: 0.1, Epsilon: 1e-4}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.ErrorSmoothTime <= 0 {
		o.ErrorSmoothTime = d.ErrorSmoothTime
	}
	if o.Epsilon <= 0 {
		o.Epsilon = d.Epsilon
	}
	return o
}

// VisualSmoother owns a single local controller's (positionOffset,
// rotationOffset) pair (spec.md §3 Visual offset). At rest both are
// identity; SetOffset is called at most once per reconciliation, and not
// at all when the correction's offset exceeds MaxVisualOffset.
type VisualSmoother struct {
	opts Options

	positionOffset mathx.Vec3
	rotationOffset mathx.Quat
}

// New constructs a VisualSmoother at rest (identity offsets).
func New(opts Options) *VisualSmoother {
	return &VisualSmoother{
		opts:           opts.normalize(),
		rotationOffset: mathx.IdentityQuat,
	}
}

// SetOffset installs a new correction offset, replacing whatever was left
// of any prior one (spec.md §4.2 step 6). A caller that decides to discard
// the offset (magnitude over MaxVisualOffset) should call Reset instead.
func (s *VisualSmoother) SetOffset(position mathx.Vec3, rotation mathx.Quat) {
	s.positionOffset = position
	s.rotationOffset = rotation.Normalize()
}

// Reset snaps both offsets back to identity immediately, used when a
// correction's magnitude exceeds MaxVisualOffset (spec.md §4.2 step 6) or
// when reconciliation begins (step 4: "Reset visual offset to identity").
func (s *VisualSmoother) Reset() {
	s.positionOffset = mathx.Vec3{}
	s.rotationOffset = mathx.IdentityQuat
}

// PositionOffset returns the current position offset.
func (s *VisualSmoother) PositionOffset() mathx.Vec3 { return s.positionOffset }

// RotationOffset returns the current rotation offset.
func (s *VisualSmoother) RotationOffset() mathx.Quat { return s.rotationOffset }

// Magnitude returns the position offset's length, used to test the
// testable-properties invariant that it is non-increasing between
// reconciliations (spec.md §8).
func (s *VisualSmoother) Magnitude() float64 { return s.positionOffset.Length() }

// Decay advances the offsets toward identity by one frame of dt seconds
// and returns the (possibly reduced) offsets to apply this frame. Once
// both offsets are within Epsilon of identity they are clamped exactly to
// it (spec.md §4.4).
func (s *VisualSmoother) Decay(dt float64) (mathx.Vec3, mathx.Quat) {
	if dt <= 0 {
		return s.positionOffset, s.rotationOffset
	}
	decay := 1 - math.Exp(-dt/s.opts.ErrorSmoothTime)
	s.positionOffset = mathx.Lerp(s.positionOffset, mathx.Vec3{}, decay)
	s.rotationOffset = mathx.LerpQuat(s.rotationOffset, mathx.IdentityQuat, decay)

	if s.positionOffset.NearZero(s.opts.Epsilon) && s.rotationOffset.NearIdentity(s.opts.Epsilon) {
		s.Reset()
	}
	return s.positionOffset, s.rotationOffset
}

// Apply composes a simulated transform with the current offset to produce
// the transform that should actually be rendered this frame.
func (s *VisualSmoother) Apply(simPos mathx.Vec3, simRot mathx.Quat) (mathx.Vec3, mathx.Quat) {
	return simPos.Add(s.positionOffset), s.rotationOffset.Mul(simRot).Normalize()
}
