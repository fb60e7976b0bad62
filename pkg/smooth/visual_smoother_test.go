package smooth

import (
	"testing"

	"github.com/pulsegrid/predictsync/pkg/mathx"
)

func TestDecayMovesTowardIdentity(t *testing.T) {
	s := New(Options{ErrorSmoothTime: 0.1})
	s.SetOffset(mathx.Vec3{X: 10}, mathx.IdentityQuat)

	pos, _ := s.Decay(0.05)
	if pos.X <= 0 || pos.X >= 10 {
		t.Fatalf("Decay(0.05) position.X = %v, want strictly between 0 and 10", pos.X)
	}
}

func TestDecayIsMonotonicNonIncreasing(t *testing.T) {
	s := New(Options{ErrorSmoothTime: 0.1})
	s.SetOffset(mathx.Vec3{X: 5}, mathx.IdentityQuat)

	last := s.Magnitude()
	for i := 0; i < 50; i++ {
		s.Decay(0.016)
		cur := s.Magnitude()
		if cur > last {
			t.Fatalf("offset magnitude increased: %v -> %v", last, cur)
		}
		last = cur
	}
}

func TestDecaySnapsToIdentityBelowEpsilon(t *testing.T) {
	s := New(Options{ErrorSmoothTime: 0.01, Epsilon: 0.01})
	s.SetOffset(mathx.Vec3{X: 0.001}, mathx.IdentityQuat)
	s.Decay(1.0)
	if s.PositionOffset() != (mathx.Vec3{}) {
		t.Fatalf("PositionOffset() = %+v, want zero", s.PositionOffset())
	}
	if s.RotationOffset() != mathx.IdentityQuat {
		t.Fatalf("RotationOffset() = %+v, want identity", s.RotationOffset())
	}
}

func TestResetIsIdentity(t *testing.T) {
	s := New(Options{})
	s.SetOffset(mathx.Vec3{X: 1, Y: 2, Z: 3}, mathx.Quat{X: 1})
	s.Reset()
	if s.Magnitude() != 0 {
		t.Fatalf("Magnitude() after Reset = %v, want 0", s.Magnitude())
	}
}
