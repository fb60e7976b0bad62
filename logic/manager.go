// Package logic owns the RoomManager, the single top-level registry of
// live matches, in the same shape as the teacher's logic.RoomManager.
package logic

import (
	"fmt"
	"sync"

	"github.com/pulsegrid/predictsync/logic/room"
	"github.com/pulsegrid/predictsync/logic/session"
	"github.com/pulsegrid/predictsync/pkg/clock"
	"github.com/pulsegrid/predictsync/pkg/dashboard"
	"github.com/pulsegrid/predictsync/pkg/predict"
)

// RoomManager owns every live Room, keyed by room id.
type RoomManager struct {
	clockOpts    clock.Options
	predictOpts  predict.Options
	simFactory   room.SimulatorFactory
	codec        session.Codec
	dashboardHub *dashboard.Hub
	inputRate    float64
	inputBurst   int

	rw   sync.RWMutex
	room map[uint64]*room.Room
	wg   sync.WaitGroup
}

// NewRoomManager constructs an empty manager. Every room it creates shares
// clockOpts/predictOpts, the application's simFactory and codec, and the
// per-connection input rate limit (inputRate events/second, inputBurst
// immediate tokens) passed through to room.NewRoom.
func NewRoomManager(clockOpts clock.Options, predictOpts predict.Options, simFactory room.SimulatorFactory, codec session.Codec, inputRate float64, inputBurst int) *RoomManager {
	return &RoomManager{
		clockOpts:   clockOpts,
		predictOpts: predictOpts,
		simFactory:  simFactory,
		codec:       codec,
		inputRate:   inputRate,
		inputBurst:  inputBurst,
		room:        make(map[uint64]*room.Room),
	}
}

// SetDashboard wires a read-only spectator feed onto every room this
// manager creates from now on, and onto every room it already owns.
func (m *RoomManager) SetDashboard(hub *dashboard.Hub) {
	m.rw.Lock()
	defer m.rw.Unlock()
	m.dashboardHub = hub
	for _, r := range m.room {
		r.SetDashboard(hub)
	}
}

// CreateRoom creates and starts a new room under id.
func (m *RoomManager) CreateRoom(id uint64) (*room.Room, error) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if _, ok := m.room[id]; ok {
		return nil, fmt.Errorf("room id[%d] exists", id)
	}

	r := room.NewRoom(id, m.clockOpts, m.predictOpts, m.simFactory, m.codec, m.inputRate, m.inputBurst)
	if m.dashboardHub != nil {
		r.SetDashboard(m.dashboardHub)
	}
	m.room[id] = r

	m.wg.Add(1)
	go func() {
		defer func() {
			m.rw.Lock()
			delete(m.room, id)
			m.rw.Unlock()
			m.wg.Done()
		}()
		r.Run()
	}()

	return r, nil
}

// GetRoom returns the room registered under id, or nil.
func (m *RoomManager) GetRoom(id uint64) *room.Room {
	m.rw.RLock()
	defer m.rw.RUnlock()
	return m.room[id]
}

// GetOrCreateRoom returns the room registered under id, creating it first
// if it doesn't exist yet. Used by the connect handshake so the first
// player to reference a room id brings it into existence.
func (m *RoomManager) GetOrCreateRoom(id uint64) (*room.Room, error) {
	if r := m.GetRoom(id); r != nil {
		return r, nil
	}
	return m.CreateRoom(id)
}

// RoomNum reports how many rooms are currently live.
func (m *RoomManager) RoomNum() int {
	m.rw.RLock()
	defer m.rw.RUnlock()
	return len(m.room)
}

// Stop force-closes every room and waits for them all to exit.
func (m *RoomManager) Stop() {
	m.rw.Lock()
	for _, r := range m.room {
		r.Stop()
	}
	m.room = make(map[uint64]*room.Room)
	m.rw.Unlock()

	m.wg.Wait()
}
