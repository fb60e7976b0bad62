// Package clock implements the fixed-step tick accumulator described in
// spec.md §4.1: wall-clock frame deltas accumulate, and whole
// TickInterval-sized steps are drained from the accumulator up to a
// per-frame cap, guarding against a spiral of death when a frame overruns
// its budget.
package clock

// Options configures a Clock. Zero-value fields are replaced with spec.md
// §6 defaults when New normalizes them.
type Options struct {
	TickInterval     float64 // seconds, default 1/30
	MaxTicksPerFrame int     // default 5
	TargetTickAhead  uint32  // default 2
	MaxTickDrift     uint32  // default 30
}

// DefaultOptions returns spec.md §6's defaults.
func DefaultOptions() Options {
	return Options{
		TickInterval:     1.0 / 30.0,
		MaxTicksPerFrame: 5,
		TargetTickAhead:  2,
		MaxTickDrift:     30,
	}
}

// normalize fills any zero-valued field with its default.
func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
	if o.MaxTicksPerFrame <= 0 {
		o.MaxTicksPerFrame = d.MaxTicksPerFrame
	}
	if o.TargetTickAhead == 0 {
		o.TargetTickAhead = d.TargetTickAhead
	}
	if o.MaxTickDrift == 0 {
		o.MaxTickDrift = d.MaxTickDrift
	}
	return o
}

// Clock is the scene-wide simulation clock owned by a TickCoordinator
// (spec.md §3 Clock state, §4.1). It is not safe for concurrent use — the
// coordinator drives it from the single engine update thread (spec.md §5).
type Clock struct {
	opts Options

	currentTick   uint32
	lastAckTick   uint32
	serverTick    uint32
	synchronized  bool
	isHost        bool
	accumulator   float64
}

// New constructs a Clock. isHost fixes whether this process is the
// authoritative host (which is always "synchronized" and drives serverTick
// itself rather than receiving it).
func New(opts Options, isHost bool) *Clock {
	opts = opts.normalize()
	c := &Clock{
		opts:   opts,
		isHost: isHost,
	}
	if isHost {
		c.synchronized = true
	}
	return c
}

// Options returns the clock's configuration.
func (c *Clock) Options() Options { return c.opts }

// CurrentTick returns the tick this process is currently simulating (or
// about to simulate next).
func (c *Clock) CurrentTick() uint32 { return c.currentTick }

// ServerTick returns the last known/authoritative server tick.
func (c *Clock) ServerTick() uint32 { return c.serverTick }

// LastAckTick returns the last tick acknowledged by a reconciled snapshot.
func (c *Clock) LastAckTick() uint32 { return c.lastAckTick }

// Synchronized reports whether the client has locked onto a server tick.
// Always true for the host.
func (c *Clock) Synchronized() bool { return c.synchronized }

// AcknowledgeTick implements spec.md §4.1 acknowledgeTick(t):
// lastAckTick <- max(lastAckTick, t).
func (c *Clock) AcknowledgeTick(t uint32) {
	if t > c.lastAckTick {
		c.lastAckTick = t
	}
}

// DriftEvent describes a resync so the caller can log it (spec.md §7:
// clock drift is logged, not surfaced as an error).
type DriftEvent struct {
	PreviousServerTick uint32
	NewServerTick      uint32
	PreviousDrift       int64
	Resynced            bool
}

// UpdateServerTick implements spec.md §4.1 updateServerTick(t). It is a
// no-op on the host (the host defines serverTick, it doesn't receive it).
// Returns the drift event if a resync occurred, or nil otherwise.
func (c *Clock) UpdateServerTick(t uint32) *DriftEvent {
	if c.isHost {
		return nil
	}
	if t <= c.serverTick && c.synchronized {
		return nil
	}
	prevServer := c.serverTick
	c.serverTick = t

	if !c.synchronized {
		c.currentTick = c.serverTick + c.opts.TargetTickAhead
		c.synchronized = true
		return &DriftEvent{PreviousServerTick: prevServer, NewServerTick: t, Resynced: true}
	}

	drift := int64(c.currentTick) - int64(c.serverTick)
	if drift < 0 || uint32(drift) > c.opts.MaxTickDrift {
		c.currentTick = c.serverTick + c.opts.TargetTickAhead
		c.accumulator = 0
		return &DriftEvent{PreviousServerTick: prevServer, NewServerTick: t, PreviousDrift: drift, Resynced: true}
	}
	return nil
}

// AdvanceHost sets serverTick to match currentTick on the host after it
// has processed a controller's tick — the host has no separate server
// clock to converge on, it *is* the server clock for its own ticks.
func (c *Clock) AdvanceHost() {
	if c.isHost {
		c.serverTick = c.currentTick
	}
}

// TickResult reports how many ticks a Drain call produced, for callers
// that need to know whether any simulation work happened this frame.
type TickResult struct {
	TicksRun        int
	OverflowDropped bool
}

// Drain implements spec.md §4.1's per-frame driver steps 1-3: accumulate
// frameDelta, consume whole ticks up to MaxTicksPerFrame, drop overflow.
// step is invoked once per tick with the tick number about to be
// simulated; currentTick is incremented only after step returns, matching
// spec.md §4.1 ("Then currentTick is incremented").
// If the clock is not host and not yet synchronized, Drain is a no-op.
func (c *Clock) Drain(frameDelta float64, step func(tick uint32)) TickResult {
	if !c.isHost && !c.synchronized {
		return TickResult{}
	}

	c.accumulator += frameDelta

	var res TickResult
	for c.accumulator >= c.opts.TickInterval && res.TicksRun < c.opts.MaxTicksPerFrame {
		step(c.currentTick)
		c.currentTick++
		c.accumulator -= c.opts.TickInterval
		res.TicksRun++
	}

	overflowThreshold := c.opts.TickInterval * float64(c.opts.MaxTicksPerFrame)
	if c.accumulator > overflowThreshold {
		c.accumulator = 0
		res.OverflowDropped = true
	}

	return res
}

// Accumulator exposes the current leftover time, mainly for tests and
// diagnostics.
func (c *Clock) Accumulator() float64 { return c.accumulator }
