package interp

import (
	"testing"

	"github.com/pulsegrid/predictsync/pkg/mathx"
	"github.com/pulsegrid/predictsync/pkg/sim"
)

func snap(tick uint32, wallTime float64, x float64) sim.Snapshot {
	return sim.Snapshot{
		Tick:     tick,
		WallTime: wallTime,
		Position: mathx.Vec3{X: x},
		Rotation: mathx.IdentityQuat,
	}
}

func TestRenderEmptyBufferReturnsFalse(t *testing.T) {
	r := New(Options{})
	_, _, ok := r.Render(1.0)
	if ok {
		t.Fatalf("Render on empty buffer should report false")
	}
}

func TestRenderInterpolatesBetweenBracketingSnapshots(t *testing.T) {
	r := New(Options{InterpolationDelay: 0.1})
	r.Insert(snap(1, 0.0, 0))
	r.Insert(snap(2, 1.0, 10))

	pos, _, _ := r.Render(0.6)
	if pos.X <= 0 || pos.X >= 10 {
		t.Fatalf("interpolated X = %v, want strictly between 0 and 10", pos.X)
	}
}

func TestRenderClampsBeforeEarliest(t *testing.T) {
	r := New(Options{InterpolationDelay: 0.1})
	r.Insert(snap(1, 5.0, 3))
	r.Insert(snap(2, 6.0, 7))

	pos, _, _ := r.Render(0.0)
	if pos.X != 3 {
		t.Fatalf("Render before earliest = %v, want 3 (clamp to oldest)", pos.X)
	}
}

func TestRenderClampsAfterLatest(t *testing.T) {
	r := New(Options{InterpolationDelay: 0.1})
	r.Insert(snap(1, 0.0, 3))
	r.Insert(snap(2, 1.0, 7))

	pos, _, _ := r.Render(100.0)
	if pos.X != 7 {
		t.Fatalf("Render after latest = %v, want 7 (clamp to newest)", pos.X)
	}
}

func TestRenderReportsTeleportOnLargeJump(t *testing.T) {
	r := New(Options{InterpolationDelay: 0.0, TeleportThreshold: 1.0})
	r.Insert(snap(1, 0.0, 0))
	pos, _, teleported := r.Render(0.0)
	if teleported || pos.X != 0 {
		t.Fatalf("expected first render at x=0 without teleport, got x=%v teleport=%v", pos.X, teleported)
	}

	r.Insert(snap(2, 1.0, 100))
	_, _, teleported = r.Render(1.0)
	if !teleported {
		t.Fatalf("expected teleport=true on large jump")
	}
}

func TestInsertRejectsStaleTick(t *testing.T) {
	r := New(Options{})
	if !r.Insert(snap(5, 1.0, 0)) {
		t.Fatalf("first insert should succeed")
	}
	if r.Insert(snap(5, 2.0, 1)) {
		t.Fatalf("insert with duplicate tick should be rejected")
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
}
