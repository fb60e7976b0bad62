package predict

import "github.com/pulsegrid/predictsync/pkg/clock"

// TickCoordinator maintains the scene-wide simulation clock and drives every
// registered Controller's per-tick and per-frame operations (spec.md §4.1).
type TickCoordinator struct {
	clock       *clock.Clock
	controllers map[uint64]*Controller
	removed     map[uint64]bool
}

// NewTickCoordinator constructs a coordinator with its own clock.
func NewTickCoordinator(opts clock.Options, isHost bool) *TickCoordinator {
	return &TickCoordinator{
		clock:       clock.New(opts, isHost),
		controllers: make(map[uint64]*Controller),
		removed:     make(map[uint64]bool),
	}
}

// Clock exposes the underlying clock, e.g. for wire-level tick reporting.
func (t *TickCoordinator) Clock() *clock.Clock { return t.clock }

// Register adds or replaces a controller under its entity id. Idempotent.
func (t *TickCoordinator) Register(c *Controller) {
	t.controllers[c.identity.EntityID] = c
	delete(t.removed, c.identity.EntityID)
}

// Unregister marks a controller for lazy removal before the next Advance
// call (spec.md §4.1: "a destroyed controller is removed lazily before each
// update pass").
func (t *TickCoordinator) Unregister(entityID uint64) {
	t.removed[entityID] = true
}

// Lookup returns the controller registered for entityID, if any.
func (t *TickCoordinator) Lookup(entityID uint64) (*Controller, bool) {
	c, ok := t.controllers[entityID]
	return c, ok
}

// AcknowledgeTick delegates to the underlying clock.
func (t *TickCoordinator) AcknowledgeTick(tick uint32) {
	t.clock.AcknowledgeTick(tick)
}

// UpdateServerTick delegates to the underlying clock and returns any drift
// event it produced.
func (t *TickCoordinator) UpdateServerTick(tick uint32) *clock.DriftEvent {
	return t.clock.UpdateServerTick(tick)
}

func (t *TickCoordinator) applyRemovals() {
	if len(t.removed) == 0 {
		return
	}
	for id := range t.removed {
		delete(t.controllers, id)
	}
	t.removed = make(map[uint64]bool)
}

// Advance is the per-frame driver (spec.md §4.1 "Per-frame driver"). It
// drains whole simulation ticks worth of frameDelta seconds; within each
// tick every proxied-host controller drains its input queue first, then
// every local controller predicts. After the tick loop it runs a visual
// pass over every registered controller. Iteration order within a phase
// follows Go's randomized map order, not a stable one; correctness doesn't
// depend on it because the two phases already separate proxied-host
// processing from local-role simulation.
func (t *TickCoordinator) Advance(frameDelta, wallNow float64) clock.TickResult {
	t.applyRemovals()

	dt := t.clock.Options().TickInterval
	result := t.clock.Drain(frameDelta, func(tick uint32) {
		for _, c := range t.controllers {
			if c.role == RoleProxiedHost {
				c.ProcessInputQueue(dt, wallNow)
			}
		}
		for _, c := range t.controllers {
			if c.role.IsLocal() {
				c.Simulate(tick, dt)
			}
		}
		t.clock.AdvanceHost()
	})

	for _, c := range t.controllers {
		c.UpdateVisuals(wallNow, dt)
	}

	return result
}
