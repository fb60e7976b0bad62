package server

import (
	"sync/atomic"
	"time"

	l4g "github.com/alecthomas/log4go"
	proto "github.com/golang/protobuf/proto"

	"github.com/pulsegrid/predictsync/logic/room"
	"github.com/pulsegrid/predictsync/pkg/transport"
	"github.com/pulsegrid/predictsync/pkg/wire"
)

// OnConnect is the transport.Callback hook for a freshly accepted
// connection, before any handshake has happened.
func (s *PredictSyncServer) OnConnect(conn *transport.Conn) bool {
	count := atomic.AddInt64(&s.totalConn, 1)
	l4g.Debug("[router] connect [%s] total=%d", conn.GetRawConn().RemoteAddr(), count)
	return true
}

// OnMessage handles the pre-handoff handshake: only ID_Connect is legal
// here. Every other message id is rejected, since a connection that hasn't
// completed the handshake has no room to route to yet.
func (s *PredictSyncServer) OnMessage(conn *transport.Conn, pkt *transport.Packet) bool {
	if pkt.ID != wire.ID_Connect {
		l4g.Error("[router] msg id=%s before handshake, dropping conn", pkt.ID)
		return false
	}

	var msg wire.ConnectMsg
	if err := pkt.Unmarshal(&msg); err != nil {
		l4g.Error("[router] unmarshal connect: %v", err)
		return false
	}

	roomID, entityID, err := s.issuer.VerifySessionToken(msg.GetToken())
	if err != nil {
		l4g.Error("[router] token rejected: %v", err)
		s.reject(conn, wire.ErrorCode_BAD_TOKEN)
		return true
	}

	r, err := s.roomMgr.GetOrCreateRoom(roomID)
	if err != nil || r == nil {
		l4g.Error("[router] room[%d] unavailable: %v", roomID, err)
		s.reject(conn, wire.ErrorCode_NO_ROOM)
		return true
	}
	if r.IsOver() {
		l4g.Error("[router] room[%d] is over", roomID)
		s.reject(conn, wire.ErrorCode_NO_ROOM)
		return true
	}

	connID := atomic.AddUint64(&s.nextConn, 1)
	conn.PutExtraData(room.ConnIdentity{ConnID: connID, EntityID: entityID})

	l4g.Info("[router] entity=%d conn=%d -> room=%d", entityID, connID, roomID)
	return r.OnConnect(conn)
}

// OnClose is the transport.Callback hook for a connection that never
// completed the handshake (once handed to a Room, OnClose fires there
// instead, since SetCallback replaced this Callback).
func (s *PredictSyncServer) OnClose(conn *transport.Conn) {
	count := atomic.AddInt64(&s.totalConn, -1)
	l4g.Info("[router] close total=%d", count)
}

func (s *PredictSyncServer) reject(conn *transport.Conn, code wire.ErrorCode) {
	ack := &wire.ConnectAckMsg{ErrorCode: proto.Int32(int32(code))}
	conn.AsyncWritePacket(transport.NewPacket(wire.ID_ConnectAck, ack), time.Millisecond)
}
