// Package server wires the transport listener to the room manager and
// implements the connect handshake, in the same thin role the teacher's
// server.LockStepServer plays over its own kcp_server + logic.RoomManager.
package server

import (
	"github.com/pulsegrid/predictsync/logic"
	"github.com/pulsegrid/predictsync/pkg/auth"
	"github.com/pulsegrid/predictsync/pkg/transport"
)

// PredictSyncServer is the authoritative host process: one UDP/KCP
// listener, one RoomManager, one JWT issuer used to verify (not mint)
// session tokens on connect.
type PredictSyncServer struct {
	roomMgr   *logic.RoomManager
	issuer    *auth.Issuer
	udpServer *transport.Server
	totalConn int64
	nextConn  uint64
}

// New constructs and starts listening on address. roomMgr must already be
// configured with the application's clock/predict options and Simulator
// factory; issuer must share the secret used to mint tokens elsewhere
// (e.g. a matchmaking/lobby service).
func New(address string, roomMgr *logic.RoomManager, issuer *auth.Issuer) (*PredictSyncServer, error) {
	s := &PredictSyncServer{
		roomMgr: roomMgr,
		issuer:  issuer,
	}
	udpServer, err := transport.ListenAndServeKCP(address, s, transport.DefaultConfig())
	if err != nil {
		return nil, err
	}
	s.udpServer = udpServer
	return s, nil
}

// RoomManager exposes the underlying room registry, e.g. for a status page.
func (s *PredictSyncServer) RoomManager() *logic.RoomManager { return s.roomMgr }

// TotalConnections reports the current live connection count.
func (s *PredictSyncServer) TotalConnections() int64 { return s.totalConn }

// Stop shuts down every room and the listener.
func (s *PredictSyncServer) Stop() {
	s.roomMgr.Stop()
	s.udpServer.Stop()
}
