// Package interp implements spec.md §4.3's RemoteInterpolator: it buffers
// authoritative snapshots for an observed entity and renders a point
// InterpolationDelay seconds in the past, bounding the visible effect of
// network jitter at the cost of a small, constant lag.
package interp

import (
	"github.com/pulsegrid/predictsync/pkg/mathx"
	"github.com/pulsegrid/predictsync/pkg/ringbuf"
	"github.com/pulsegrid/predictsync/pkg/sim"
)

// Options configures a RemoteInterpolator.
type Options struct {
	// InterpolationDelay is how far in the past, in seconds, to render.
	InterpolationDelay float64
	// TeleportThreshold: a render whose target is farther than this from
	// the previously rendered position is reported as a teleport.
	TeleportThreshold float64
	// HistorySize bounds the snapshot buffer.
	HistorySize int
}

// DefaultOptions returns spec.md §6's defaults.
func DefaultOptions() Options {
	return Options{InterpolationDelay: 0.1, TeleportThreshold: 5.0, HistorySize: 128}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.InterpolationDelay <= 0 {
		o.InterpolationDelay = d.InterpolationDelay
	}
	if o.TeleportThreshold <= 0 {
		o.TeleportThreshold = d.TeleportThreshold
	}
	if o.HistorySize <= 0 {
		o.HistorySize = d.HistorySize
	}
	return o
}

// RemoteInterpolator buffers a RemoteObserver's authoritative snapshots
// (spec.md §3 RemoteStateBuffer) and renders a delayed, interpolated
// transform each frame.
type RemoteInterpolator struct {
	opts   Options
	buffer *ringbuf.RingHistory[sim.Snapshot]

	lastRendered      mathx.Vec3
	haveLastRendered  bool
}

// New constructs an empty RemoteInterpolator.
func New(opts Options) *RemoteInterpolator {
	opts = opts.normalize()
	return &RemoteInterpolator{
		opts:   opts,
		buffer: ringbuf.New[sim.Snapshot](opts.HistorySize),
	}
}

// Insert buffers a newly received authoritative snapshot. Inserts with
// tick <= the newest buffered tick are discarded (spec.md §4.3).
func (r *RemoteInterpolator) Insert(s sim.Snapshot) bool {
	return r.buffer.Push(s)
}

// Reset empties the buffer, e.g. on a role transition into RemoteObserver.
func (r *RemoteInterpolator) Reset() {
	r.buffer.Reset()
	r.haveLastRendered = false
}

// Render computes the transform to display at wallNow, per spec.md §4.3:
// renderTime = wallNow - InterpolationDelay; find bracketing snapshots A,B;
// lerp/slerp between them; snap to the nearest edge if renderTime falls
// outside the buffer. The third result is the teleport flag: true when the
// target is farther than TeleportThreshold from the previously rendered
// position. It is false on an empty buffer and on the first render; the
// returned transform is the target whether or not the flag is set.
func (r *RemoteInterpolator) Render(wallNow float64) (mathx.Vec3, mathx.Quat, bool) {
	all := r.buffer.All()
	if len(all) == 0 {
		return mathx.Vec3{}, mathx.IdentityQuat, false
	}

	renderTime := wallNow - r.opts.InterpolationDelay

	var target mathx.Vec3
	var rot mathx.Quat

	switch {
	case renderTime <= all[0].WallTime:
		target, rot = all[0].Position, all[0].Rotation
	case renderTime >= all[len(all)-1].WallTime:
		last := all[len(all)-1]
		target, rot = last.Position, last.Rotation
	default:
		a, b := all[0], all[len(all)-1]
		for i := 0; i < len(all)-1; i++ {
			if all[i].WallTime <= renderTime && renderTime <= all[i+1].WallTime {
				a, b = all[i], all[i+1]
				break
			}
		}
		span := b.WallTime - a.WallTime
		t := 0.0
		if span > 0 {
			t = mathx.Clamp01((renderTime - a.WallTime) / span)
		}
		target = mathx.Lerp(a.Position, b.Position, t)
		rot = mathx.SlerpQuat(a.Rotation, b.Rotation, t)
	}

	teleport := false
	if r.haveLastRendered && r.lastRendered.Distance(target) > r.opts.TeleportThreshold {
		teleport = true
	}
	r.lastRendered = target
	r.haveLastRendered = true

	return target, rot, teleport
}

// Len exposes the buffered snapshot count, for tests and diagnostics.
func (r *RemoteInterpolator) Len() int { return r.buffer.Len() }
