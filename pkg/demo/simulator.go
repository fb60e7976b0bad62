// Package demo provides a minimal deterministic sim.Simulator and
// session.Codec pair, just enough to drive the example server and client
// end to end and exercise predict/reconcile/replay, playing the same role
// the teacher's example client/server pair's placeholder C2S_InputMsg{Sid}
// played for its own lockstep frame loop.
package demo

import (
	"encoding/json"

	"github.com/pulsegrid/predictsync/pkg/mathx"
)

// Input is one tick's worth of demo control: a normalized 2D move vector.
type Input struct {
	MoveX float64 `json:"x"`
	MoveZ float64 `json:"z"`
}

// State is the demo entity's replicated payload beyond position/rotation.
// Empty: this simulator has nothing else worth replicating.
type State struct{}

// Mover is a trivial deterministic Simulator: constant-velocity movement
// along the desired input direction, no acceleration or collision.
type Mover struct {
	position mathx.Vec3
	speed    float64
	desired  Input
}

// NewMover constructs a Mover at the origin moving at speed units/second
// when given a unit input vector.
func NewMover(speed float64) *Mover {
	return &Mover{speed: speed}
}

// SetDesiredInput records the input BuildInput will report on the next
// tick, the demo stand-in for reading a keyboard/gamepad each frame.
func (m *Mover) SetDesiredInput(in Input) { m.desired = in }

// BuildInput implements sim.Simulator.
func (m *Mover) BuildInput() any { return m.desired }

// Simulate implements sim.Simulator.
func (m *Mover) Simulate(input any, dt float64) {
	in, ok := input.(Input)
	if !ok {
		return
	}
	m.position.X += in.MoveX * m.speed * dt
	m.position.Z += in.MoveZ * m.speed * dt
}

// WriteState implements sim.Simulator.
func (m *Mover) WriteState() (mathx.Vec3, mathx.Quat, any) {
	return m.position, mathx.IdentityQuat, State{}
}

// ReadState implements sim.Simulator.
func (m *Mover) ReadState(position mathx.Vec3, rotation mathx.Quat, payload any) {
	m.position = position
}

// Codec implements session.Codec with JSON. Adequate for a payload this
// small; a deployment with a real payload type would reach for a tighter
// binary encoding of its own, the way pkg/wire does for the envelope.
type Codec struct{}

// EncodeInput implements session.Codec.
func (Codec) EncodeInput(payload any) []byte {
	data, _ := json.Marshal(payload)
	return data
}

// DecodeInput implements session.Codec.
func (Codec) DecodeInput(data []byte) any {
	var in Input
	json.Unmarshal(data, &in)
	return in
}

// EncodeState implements session.Codec.
func (Codec) EncodeState(payload any) []byte {
	data, _ := json.Marshal(payload)
	return data
}

// DecodeState implements session.Codec.
func (Codec) DecodeState(data []byte) any {
	var st State
	json.Unmarshal(data, &st)
	return st
}
