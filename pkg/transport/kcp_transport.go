package transport

import (
	"net"

	kcp "github.com/xtaci/kcp-go/v5"

	l4g "github.com/alecthomas/log4go"
)

// ListenAndServeKCP starts a KCP-backed Server. Accepted sessions keep
// kcp-go's default settings; the fast-mode ARQ, window and socket-buffer
// tuning in tuneSession (the teacher's pkg/kcp_server.ListenAndServe
// parameters) is applied only to sessions opened by DialKCP. KCP's own
// retransmission is intentionally not relied upon for core correctness
// (spec.md §1 Non-goals: no reliable/ordered transport is assumed) — it
// simply lowers the loss rate the tick-monotonic guards have to absorb.
func ListenAndServeKCP(addr string, callback Callback, config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	l, err := kcp.Listen(addr)
	if err != nil {
		return nil, err
	}

	server := NewServer(config, callback)
	go server.Start(l)

	l4g.Info("[transport] kcp listening addr=%s", addr)
	return server, nil
}

// DialKCP opens a client-side KCP session with tuneSession's fast-mode
// settings.
func DialKCP(addr string) (net.Conn, error) {
	sess, err := kcp.DialWithOptions(addr, nil, 10, 3)
	if err != nil {
		return nil, err
	}
	tuneSession(sess)
	return sess, nil
}

func tuneSession(sess *kcp.UDPSession) {
	// fast mode: ikcp_nodelay(kcp, 1, 10, 2, 1)
	sess.SetNoDelay(1, 10, 2, 1)
	sess.SetStreamMode(true)
	sess.SetWindowSize(4096, 4096)
	sess.SetReadBuffer(4 * 1024 * 1024)
	sess.SetWriteBuffer(4 * 1024 * 1024)
	sess.SetACKNoDelay(true)
}
