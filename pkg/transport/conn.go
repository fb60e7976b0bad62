package transport

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	l4g "github.com/alecthomas/log4go"
)

// Callback receives connection lifecycle and message events, the same
// shape as the teacher's network.ConnCallback.
type Callback interface {
	OnConnect(c *Conn) bool
	OnMessage(c *Conn, p *Packet) bool
	OnClose(c *Conn)
}

// Conn wraps a net.Conn (a KCP session in production, any net.Conn in
// tests) with a buffered async write queue and a slot for the host to
// stash the negotiated controllerConnectionId, mirroring the teacher's
// network.Conn (GetExtraData/PutExtraData/AsyncWritePacket).
type Conn struct {
	raw      net.Conn
	server   *Server
	callback Callback

	sendCh chan *Packet
	exitCh chan struct{}

	closeOnce sync.Once
	closed    int32

	extraMu sync.RWMutex
	extra   any
}

// NewConn constructs a Conn bound to a raw net.Conn, driven by srv's
// configured queue depth.
func NewConn(raw net.Conn, srv *Server) *Conn {
	return &Conn{
		raw:    raw,
		server: srv,
		sendCh: make(chan *Packet, srv.config.SendQueueDepth),
		exitCh: make(chan struct{}),
	}
}

// SetCallback wires the connection's event sink. Must be called from
// OnConnect only (matches teacher's contract note verbatim).
func (c *Conn) SetCallback(cb Callback) { c.callback = cb }

// GetExtraData returns whatever the callback has stashed on this
// connection (typically a controllerConnectionId once assigned).
func (c *Conn) GetExtraData() any {
	c.extraMu.RLock()
	defer c.extraMu.RUnlock()
	return c.extra
}

// PutExtraData stashes application data on the connection.
func (c *Conn) PutExtraData(v any) {
	c.extraMu.Lock()
	c.extra = v
	c.extraMu.Unlock()
}

// GetRawConn exposes the underlying net.Conn, e.g. for RemoteAddr logging.
func (c *Conn) GetRawConn() net.Conn { return c.raw }

// IsClosed reports whether Close has completed.
func (c *Conn) IsClosed() bool { return atomic.LoadInt32(&c.closed) != 0 }

// AsyncWritePacket enqueues p for the write loop. timeout of 0 blocks
// until the queue has room; a positive timeout drops the packet if the
// queue stays full that long (spec.md §5: "fire-and-forget non-blocking
// calls into the transport").
func (c *Conn) AsyncWritePacket(p *Packet, timeout time.Duration) error {
	if c.IsClosed() {
		return errClosed
	}
	if timeout <= 0 {
		select {
		case c.sendCh <- p:
			return nil
		case <-c.exitCh:
			return errClosed
		}
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case c.sendCh <- p:
		return nil
	case <-t.C:
		return errWriteTimeout
	case <-c.exitCh:
		return errClosed
	}
}

// Close shuts the connection down idempotently.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		atomic.StoreInt32(&c.closed, 1)
		close(c.exitCh)
		c.raw.Close()
		if c.callback != nil {
			c.callback.OnClose(c)
		}
	})
}

// Do drives the connection's read and write loops until it closes. Called
// by Server.Start once per accepted connection, in its own goroutine.
func (c *Conn) Do() {
	if c.callback == nil {
		if c.server.callback == nil {
			c.Close()
			return
		}
		c.callback = c.server.callback
	}

	if !c.callback.OnConnect(c) {
		c.Close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()
	go func() {
		defer wg.Done()
		c.readLoop()
	}()
	wg.Wait()
}

func (c *Conn) writeLoop() {
	for {
		select {
		case p := <-c.sendCh:
			if c.server.config.WriteTimeout > 0 {
				c.raw.SetWriteDeadline(time.Now().Add(c.server.config.WriteTimeout))
			}
			if _, err := c.raw.Write(p.Serialize()); err != nil {
				l4g.Error("[transport] write error=%v", err)
				c.Close()
				return
			}
		case <-c.exitCh:
			return
		}
	}
}

func (c *Conn) readLoop() {
	defer c.Close()
	for {
		if c.server.config.ReadTimeout > 0 {
			c.raw.SetReadDeadline(time.Now().Add(c.server.config.ReadTimeout))
		}
		p, err := ReadPacket(c.raw)
		if err != nil {
			return
		}
		if !c.callback.OnMessage(c, p) {
			return
		}
	}
}
