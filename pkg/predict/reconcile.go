package predict

import "github.com/pulsegrid/predictsync/pkg/sim"

// Reconcile implements spec.md §4.2's reconciliation algorithm, run on the
// controlled client on receipt of an authoritative snapshot S for tick T_S.
// Only meaningful for RoleLocalClient.
func (c *Controller) Reconcile(server sim.Snapshot) {
	if c.role != RoleLocalClient {
		return
	}
	tS := server.Tick
	if c.haveReconciled && tS <= c.lastReconciledTick {
		return // out of order, discarded
	}

	predicted, ok := c.stateHistory.Get(tS)
	if !ok {
		return // history aged out, drop silently
	}

	if c.ackTick != nil {
		c.ackTick(tS)
	}
	c.inputHistory.DropUpTo(tS)
	c.stateHistory.DropUpTo(tS)
	c.lastReconciledTick = tS
	c.haveReconciled = true

	if predicted.WithinTolerance(server, c.opts.ReconciliationTolerance) {
		return // happy path, most ticks
	}

	curPos, curRot, _ := c.simulator.WriteState()
	visPos, visRot := c.smoother.Apply(curPos, curRot)
	c.smoother.Reset()

	c.simulator.ReadState(server.Position, server.Rotation, server.Payload)

	toReplay := c.inputHistory.All()
	replayed := make([]sim.Input, len(toReplay))
	copy(replayed, toReplay)
	c.inputHistory.Reset()
	c.stateHistory.Reset()

	newPos, newRot := server.Position, server.Rotation
	for _, in := range replayed {
		c.simulator.Simulate(in.Payload, c.tickInterval)
		pos, rot, payload := c.simulator.WriteState()
		snapshot := sim.Snapshot{Tick: in.Tick, WallTime: c.wallNow(), Position: pos, Rotation: rot, Payload: payload}
		c.inputHistory.Push(in)
		c.stateHistory.Push(snapshot)
		newPos, newRot = pos, rot
	}

	offsetPos := visPos.Sub(newPos)
	offsetRot := newRot.Inverse().Mul(visRot)
	if offsetPos.Length() > c.opts.MaxVisualOffset {
		c.smoother.Reset()
	} else {
		c.smoother.SetOffset(offsetPos, offsetRot)
	}

	if reconciler, ok := c.simulator.(sim.Reconciler); ok {
		reconciler.OnReconcile(server, predicted)
	}
}
