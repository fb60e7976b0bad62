package predict

import "github.com/pulsegrid/predictsync/pkg/sim"

// InputPair is the {I, I_prev} pair a client transmits to the host every
// local tick (spec.md §4.5 ClientInput -> Host).
type InputPair struct {
	Current      sim.Input
	Previous     sim.Input
	HavePrevious bool
}

// Sink is how a Controller emits network traffic. logic/session implements
// it on top of pkg/transport and pkg/wire, keeping this package free of
// net/proto concerns so it stays easy to test in isolation.
type Sink interface {
	// SendInput transmits a client's input pair to the host.
	SendInput(pair InputPair)
	// SendOwnerState sends a host-processed snapshot to the controller's
	// owning connection only (the reconciliation channel).
	SendOwnerState(snapshot sim.Snapshot)
	// SendObserverState broadcasts a host-processed snapshot to every peer
	// except the owner (the observer channel).
	SendObserverState(snapshot sim.Snapshot)
}
