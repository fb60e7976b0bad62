package room

import "github.com/pulsegrid/predictsync/pkg/wire"

// remoteStateBuffer retains the most recent observer-broadcast states across
// every controller in the room, so a newly joined or reconnecting peer can
// be sent a bounded catch-up backlog instead of waiting for the next tick's
// broadcast to learn about entities it hasn't seen yet (spec.md §C,
// mirroring the teacher's frame history replayed by doReconnect).
type remoteStateBuffer struct {
	capacity int
	entries  []*wire.StateMsg
}

// defaultStateBufferCapacity mirrors predict.Options' own HistorySize
// default so the room-level backlog and each controller's per-tick history
// cover comparable spans of time.
const defaultStateBufferCapacity = 128

func newRemoteStateBuffer(capacity int) *remoteStateBuffer {
	if capacity <= 0 {
		capacity = defaultStateBufferCapacity
	}
	return &remoteStateBuffer{capacity: capacity}
}

func (b *remoteStateBuffer) push(msg *wire.StateMsg) {
	b.entries = append(b.entries, msg)
	if len(b.entries) > b.capacity {
		b.entries = b.entries[len(b.entries)-b.capacity:]
	}
}

func (b *remoteStateBuffer) snapshot() []*wire.StateMsg {
	out := make([]*wire.StateMsg, len(b.entries))
	copy(out, b.entries)
	return out
}
