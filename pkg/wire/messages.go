// Package wire holds the protobuf wire messages exchanged between client
// and host, in the same generated-code style the teacher repository's `pb`
// package uses (proto2-style optional pointer fields, `GetXxx` accessors,
// `proto.RegisterType`). The `.proto` source these were compiled from is
// not part of this tree, matching the retrieval pack, which likewise only
// carried call sites of the teacher's own `pb` package and not its
// generator input.
package wire

import (
	fmt "fmt"

	proto "github.com/golang/protobuf/proto"
)

// ID identifies a wire message's payload type, carried in transport.Packet
// alongside the marshaled body (spec.md §4.5).
type ID uint8

const (
	ID_UNKNOWN ID = 0
	// C2S: handshake, carries the JWT session token.
	ID_Connect ID = 1
	// S2C: handshake result, carries the assigned controllerConnectionId.
	ID_ConnectAck ID = 2
	// C2S: {I, I_prev} redundant input pair (spec.md §3 Input record lifecycle).
	ID_Input ID = 3
	// S2C: authoritative snapshot, routed to owner (reconciliation) or
	// broadcast to observers depending on the send filter used.
	ID_State ID = 4
	// bidirectional: liveness / bad-network detection (spec.md §C heartbeat).
	ID_Heartbeat ID = 5
	// S2C: reconnection catch-up backlog of recent StateMsg entries, sent
	// right after ConnectAck as zero or more batches (spec.md §C).
	ID_StateBatch ID = 6
)

func (id ID) String() string {
	switch id {
	case ID_Connect:
		return "Connect"
	case ID_ConnectAck:
		return "ConnectAck"
	case ID_Input:
		return "Input"
	case ID_State:
		return "State"
	case ID_Heartbeat:
		return "Heartbeat"
	case ID_StateBatch:
		return "StateBatch"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(id))
	}
}

// ErrorCode mirrors the teacher's pb.ERRORCODE enum shape.
type ErrorCode int32

const (
	ErrorCode_OK        ErrorCode = 0
	ErrorCode_BAD_TOKEN ErrorCode = 1
	ErrorCode_NO_ROOM   ErrorCode = 2
	ErrorCode_NO_ENTITY ErrorCode = 3
)

// ConnectMsg is the C2S handshake request.
type ConnectMsg struct {
	Token    *string `protobuf:"bytes,1,opt,name=token" json:"token,omitempty"`
	EntityId *uint64 `protobuf:"varint,2,opt,name=entity_id,json=entityId" json:"entity_id,omitempty"`
}

func (m *ConnectMsg) Reset()         { *m = ConnectMsg{} }
func (m *ConnectMsg) String() string { return fmt.Sprintf("ConnectMsg%+v", *m) }
func (*ConnectMsg) ProtoMessage()    {}

func (m *ConnectMsg) GetToken() string {
	if m != nil && m.Token != nil {
		return *m.Token
	}
	return ""
}

func (m *ConnectMsg) GetEntityId() uint64 {
	if m != nil && m.EntityId != nil {
		return *m.EntityId
	}
	return 0
}

// ConnectAckMsg is the S2C handshake reply.
type ConnectAckMsg struct {
	ErrorCode              *int32  `protobuf:"varint,1,opt,name=error_code,json=errorCode" json:"error_code,omitempty"`
	ControllerConnectionId *uint64 `protobuf:"varint,2,opt,name=controller_connection_id,json=controllerConnectionId" json:"controller_connection_id,omitempty"`
}

func (m *ConnectAckMsg) Reset()         { *m = ConnectAckMsg{} }
func (m *ConnectAckMsg) String() string { return fmt.Sprintf("ConnectAckMsg%+v", *m) }
func (*ConnectAckMsg) ProtoMessage()    {}

func (m *ConnectAckMsg) GetErrorCode() int32 {
	if m != nil && m.ErrorCode != nil {
		return *m.ErrorCode
	}
	return 0
}

func (m *ConnectAckMsg) GetControllerConnectionId() uint64 {
	if m != nil && m.ControllerConnectionId != nil {
		return *m.ControllerConnectionId
	}
	return 0
}

// InputData is one tick's worth of input, carried inline (not as a
// separately-registered message) inside InputMsg, matching the teacher's
// pb.InputData nested-message shape.
type InputData struct {
	Tick    *uint32 `protobuf:"varint,1,opt,name=tick" json:"tick,omitempty"`
	Payload []byte  `protobuf:"bytes,2,opt,name=payload" json:"payload,omitempty"`
}

func (m *InputData) Reset()         { *m = InputData{} }
func (m *InputData) String() string { return fmt.Sprintf("InputData%+v", *m) }
func (*InputData) ProtoMessage()    {}

func (m *InputData) GetTick() uint32 {
	if m != nil && m.Tick != nil {
		return *m.Tick
	}
	return 0
}

func (m *InputData) GetPayload() []byte {
	if m != nil {
		return m.Payload
	}
	return nil
}

// InputMsg is the C2S per-tick input send: the current input plus the
// previous tick's input for redundancy under loss (spec.md §3 Input record
// lifecycle, §4.5).
type InputMsg struct {
	ControllerConnectionId *uint64    `protobuf:"varint,1,opt,name=controller_connection_id,json=controllerConnectionId" json:"controller_connection_id,omitempty"`
	Current                *InputData `protobuf:"bytes,2,opt,name=current" json:"current,omitempty"`
	Previous               *InputData `protobuf:"bytes,3,opt,name=previous" json:"previous,omitempty"`
}

func (m *InputMsg) Reset()         { *m = InputMsg{} }
func (m *InputMsg) String() string { return fmt.Sprintf("InputMsg%+v", *m) }
func (*InputMsg) ProtoMessage()    {}

func (m *InputMsg) GetControllerConnectionId() uint64 {
	if m != nil && m.ControllerConnectionId != nil {
		return *m.ControllerConnectionId
	}
	return 0
}

func (m *InputMsg) GetCurrent() *InputData {
	if m != nil {
		return m.Current
	}
	return nil
}

func (m *InputMsg) GetPrevious() *InputData {
	if m != nil {
		return m.Previous
	}
	return nil
}

// StateMsg is the S2C authoritative-snapshot send, used both for the
// owner's reconciliation channel and the observer broadcast channel
// (spec.md §4.5). Position and rotation are carried as flat float64s
// rather than a nested message, matching how the teacher inlines simple
// scalar fields directly onto its frame/input messages.
type StateMsg struct {
	ControllerConnectionId *uint64  `protobuf:"varint,1,opt,name=controller_connection_id,json=controllerConnectionId" json:"controller_connection_id,omitempty"`
	Tick                   *uint32  `protobuf:"varint,2,opt,name=tick" json:"tick,omitempty"`
	WallTimeMillis         *int64   `protobuf:"varint,3,opt,name=wall_time_millis,json=wallTimeMillis" json:"wall_time_millis,omitempty"`
	PosX                   *float64 `protobuf:"fixed64,4,opt,name=pos_x,json=posX" json:"pos_x,omitempty"`
	PosY                   *float64 `protobuf:"fixed64,5,opt,name=pos_y,json=posY" json:"pos_y,omitempty"`
	PosZ                   *float64 `protobuf:"fixed64,6,opt,name=pos_z,json=posZ" json:"pos_z,omitempty"`
	RotX                   *float64 `protobuf:"fixed64,7,opt,name=rot_x,json=rotX" json:"rot_x,omitempty"`
	RotY                   *float64 `protobuf:"fixed64,8,opt,name=rot_y,json=rotY" json:"rot_y,omitempty"`
	RotZ                   *float64 `protobuf:"fixed64,9,opt,name=rot_z,json=rotZ" json:"rot_z,omitempty"`
	RotW                   *float64 `protobuf:"fixed64,10,opt,name=rot_w,json=rotW" json:"rot_w,omitempty"`
	Payload                []byte   `protobuf:"bytes,11,opt,name=payload" json:"payload,omitempty"`
}

func (m *StateMsg) Reset()         { *m = StateMsg{} }
func (m *StateMsg) String() string { return fmt.Sprintf("StateMsg%+v", *m) }
func (*StateMsg) ProtoMessage()    {}

func (m *StateMsg) GetControllerConnectionId() uint64 {
	if m != nil && m.ControllerConnectionId != nil {
		return *m.ControllerConnectionId
	}
	return 0
}

func (m *StateMsg) GetTick() uint32 {
	if m != nil && m.Tick != nil {
		return *m.Tick
	}
	return 0
}

func (m *StateMsg) GetWallTimeMillis() int64 {
	if m != nil && m.WallTimeMillis != nil {
		return *m.WallTimeMillis
	}
	return 0
}

func (m *StateMsg) GetPosX() float64 {
	if m != nil && m.PosX != nil {
		return *m.PosX
	}
	return 0
}

func (m *StateMsg) GetPosY() float64 {
	if m != nil && m.PosY != nil {
		return *m.PosY
	}
	return 0
}

func (m *StateMsg) GetPosZ() float64 {
	if m != nil && m.PosZ != nil {
		return *m.PosZ
	}
	return 0
}

func (m *StateMsg) GetRotX() float64 {
	if m != nil && m.RotX != nil {
		return *m.RotX
	}
	return 0
}

func (m *StateMsg) GetRotY() float64 {
	if m != nil && m.RotY != nil {
		return *m.RotY
	}
	return 0
}

func (m *StateMsg) GetRotZ() float64 {
	if m != nil && m.RotZ != nil {
		return *m.RotZ
	}
	return 0
}

func (m *StateMsg) GetRotW() float64 {
	if m != nil && m.RotW != nil {
		return *m.RotW
	}
	return 0
}

func (m *StateMsg) GetPayload() []byte {
	if m != nil {
		return m.Payload
	}
	return nil
}

// HeartbeatMsg is the registered body type for ID_Heartbeat (spec.md §C,
// teacher's kBadNetworkThreshold). The demo client and Room send heartbeat
// packets with an empty body; neither fills in this message.
type HeartbeatMsg struct {
	SentAtMillis *int64 `protobuf:"varint,1,opt,name=sent_at_millis,json=sentAtMillis" json:"sent_at_millis,omitempty"`
}

func (m *HeartbeatMsg) Reset()         { *m = HeartbeatMsg{} }
func (m *HeartbeatMsg) String() string { return fmt.Sprintf("HeartbeatMsg%+v", *m) }
func (*HeartbeatMsg) ProtoMessage()    {}

func (m *HeartbeatMsg) GetSentAtMillis() int64 {
	if m != nil && m.SentAtMillis != nil {
		return *m.SentAtMillis
	}
	return 0
}

// StateBatchMsg batches several StateMsg entries into one packet, matching
// the teacher's S2C_FrameMsg batching of FrameData by kMaxFrameDataPerMsg
// during doReconnect.
type StateBatchMsg struct {
	States []*StateMsg `protobuf:"bytes,1,rep,name=states" json:"states,omitempty"`
}

func (m *StateBatchMsg) Reset()         { *m = StateBatchMsg{} }
func (m *StateBatchMsg) String() string { return fmt.Sprintf("StateBatchMsg%+v", *m) }
func (*StateBatchMsg) ProtoMessage()    {}

func (m *StateBatchMsg) GetStates() []*StateMsg {
	if m != nil {
		return m.States
	}
	return nil
}

func init() {
	proto.RegisterType((*InputData)(nil), "wire.InputData")
	proto.RegisterType((*ConnectMsg)(nil), "wire.ConnectMsg")
	proto.RegisterType((*ConnectAckMsg)(nil), "wire.ConnectAckMsg")
	proto.RegisterType((*InputMsg)(nil), "wire.InputMsg")
	proto.RegisterType((*StateMsg)(nil), "wire.StateMsg")
	proto.RegisterType((*HeartbeatMsg)(nil), "wire.HeartbeatMsg")
	proto.RegisterType((*StateBatchMsg)(nil), "wire.StateBatchMsg")
}
