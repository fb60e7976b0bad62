package transport

import (
	"time"

	l4g "github.com/alecthomas/log4go"
)

// Filter selects which connections a Send call reaches, per spec.md
// §4.5's "routing filter parameter": host, specific-owner, or
// everyone-except-owner.
type Filter int

const (
	// FilterOwner sends only to the connection identified by
	// controllerConnectionId (the reconciliation channel).
	FilterOwner Filter = iota
	// FilterExcludeOwner sends to every registered connection except the
	// owner (the observer broadcast channel).
	FilterExcludeOwner
	// FilterHost sends only to the host's own connection (used by a
	// client's ClientInput -> Host send).
	FilterHost
)

// Sender is the narrow interface logic/session depends on to publish inputs
// and states; it decouples the session layer from any concrete
// transport (spec.md §9: "abstract into the three transport sends... with
// an explicit routing filter parameter").
type Sender interface {
	Send(filter Filter, ownerConnID uint64, pkt *Packet)
}

// Router implements Sender over a set of registered connections keyed by
// controllerConnectionId, plus a single designated host connection. It is
// the piece a Room owns and hands to every Session it creates.
type Router struct {
	hostConn *Conn
	conns    map[uint64]*Conn
	quiet    func(connID uint64) bool
}

// NewRouter constructs an empty Router.
func NewRouter() *Router {
	return &Router{conns: make(map[uint64]*Conn)}
}

// SetHostConn registers the connection a non-host process uses to reach
// the host (nil on the host itself, which has no "host connection").
func (r *Router) SetHostConn(c *Conn) { r.hostConn = c }

// SetQuietCheck installs a per-connection predicate consulted before every
// FilterOwner/FilterExcludeOwner send: a connID for which fn reports true is
// skipped instead of written to, the way the teacher's broadcastFrameData
// skips a player whose heartbeat is older than kBadNetworkThreshold. A nil
// fn (the default) sends to every registered connection.
func (r *Router) SetQuietCheck(fn func(connID uint64) bool) { r.quiet = fn }

func (r *Router) isQuiet(connID uint64) bool {
	return r.quiet != nil && r.quiet(connID)
}

// Register associates connID with c so future sends can reach it.
func (r *Router) Register(connID uint64, c *Conn) {
	r.conns[connID] = c
}

// Unregister drops a connection, e.g. on disconnect.
func (r *Router) Unregister(connID uint64) {
	delete(r.conns, connID)
}

// Send implements Sender.
func (r *Router) Send(filter Filter, ownerConnID uint64, pkt *Packet) {
	if pkt == nil {
		return
	}
	switch filter {
	case FilterHost:
		if r.hostConn != nil {
			r.write(r.hostConn, pkt)
		}
	case FilterOwner:
		if r.isQuiet(ownerConnID) {
			return
		}
		if c, ok := r.conns[ownerConnID]; ok {
			r.write(c, pkt)
		}
	case FilterExcludeOwner:
		for connID, c := range r.conns {
			if connID == ownerConnID || r.isQuiet(connID) {
				continue
			}
			r.write(c, pkt)
		}
	}
}

func (r *Router) write(c *Conn, pkt *Packet) {
	if c.IsClosed() {
		return
	}
	if err := c.AsyncWritePacket(pkt, time.Millisecond); err != nil {
		l4g.Debug("[transport] drop pkt id=%s to %s: %v", pkt.ID, c.GetRawConn().RemoteAddr(), err)
	}
}
