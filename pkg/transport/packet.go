// Package transport implements spec.md §4.5's role-filtered publish of
// inputs and states over KCP sessions (any net.Conn in tests), plus the
// length-prefixed protobuf framing the teacher's pb_packet uses. The
// framing reads a byte stream, so it relies on the link delivering bytes
// in order.
package transport

import (
	"encoding/binary"
	"errors"
	"io"

	l4g "github.com/alecthomas/log4go"
	proto "github.com/golang/protobuf/proto"

	"github.com/pulsegrid/predictsync/pkg/wire"
)

const (
	lenFieldSize = 2
	idFieldSize  = 1
	minFrameLen  = lenFieldSize + idFieldSize
	maxBodyLen   = 1 << 16
)

// Packet is a framed, length-prefixed message: |len(u16)|id(u8)|body|,
// matching the teacher's pb_packet.Packet wire shape exactly.
type Packet struct {
	ID   wire.ID
	Body []byte
}

// NewPacket marshals msg (a proto.Message, or nil for an empty body) into
// a Packet tagged with id.
func NewPacket(id wire.ID, msg proto.Message) *Packet {
	p := &Packet{ID: id}
	if msg == nil {
		return p
	}
	body, err := proto.Marshal(msg)
	if err != nil {
		l4g.Error("[transport] marshal id=%s error=%v", id, err)
		return nil
	}
	p.Body = body
	return p
}

// Unmarshal decodes the packet body into out.
func (p *Packet) Unmarshal(out proto.Message) error {
	if p.Body == nil {
		return nil
	}
	return proto.Unmarshal(p.Body, out)
}

// Serialize writes the packet's wire representation.
func (p *Packet) Serialize() []byte {
	buf := make([]byte, minFrameLen, minFrameLen+len(p.Body))
	binary.BigEndian.PutUint16(buf, uint16(len(p.Body)))
	buf[lenFieldSize] = uint8(p.ID)
	return append(buf, p.Body...)
}

// ReadPacket reads one framed Packet from r, blocking until a full frame
// arrives or an error/EOF occurs.
func ReadPacket(r io.Reader) (*Packet, error) {
	head := make([]byte, minFrameLen)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}
	bodyLen := binary.BigEndian.Uint16(head)
	if int(bodyLen) > maxBodyLen {
		return nil, errors.New("transport: packet exceeds max body length")
	}
	p := &Packet{ID: wire.ID(head[lenFieldSize])}
	if bodyLen > 0 {
		p.Body = make([]byte, bodyLen)
		if _, err := io.ReadFull(r, p.Body); err != nil {
			return nil, err
		}
	}
	return p, nil
}
