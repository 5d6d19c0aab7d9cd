package wire

import (
	"encoding/binary"
	"fmt"
)

// Type is the 1-byte packet type tag (spec.md §3).
type Type uint8

const (
	TypeData          Type = 0x01
	TypeAck           Type = 0x02
	TypeHandshake     Type = 0xF0
	TypeKeepAlive     Type = 0xFF
	TypeCoded         Type = 0x10
	TypeClientHello   Type = 0x11
	TypeHandshakeInit Type = 0x12
	TypeHandshakeAuth Type = 0x13
)

// IsKnown reports whether t is one of the enumerated type tags.
// Deserialization rejects unknown types per spec.md §3.
func (t Type) IsKnown() bool {
	switch t {
	case TypeData, TypeAck, TypeHandshake, TypeKeepAlive,
		TypeCoded, TypeClientHello, TypeHandshakeInit, TypeHandshakeAuth:
		return true
	default:
		return false
	}
}

// Magic is the 4-byte constant every header must carry.
var Magic = [4]byte{0xD5, 0x4B, 0x17, 0xE0}

// Version is the current wire protocol version.
const Version uint8 = 1

// HeaderLen is the fixed packed header size (spec.md §3).
const HeaderLen = 32

// TagLen is the AEAD authentication tag length.
const TagLen = 16

// Header is the 32-byte packed packet header. Field order and sizes are
// fixed by the wire protocol; this struct is the parsed form, not the wire
// form itself — use Encode/Decode to cross the boundary.
type Header struct {
	Version    uint8
	Type       Type
	GenID      uint16
	SymbolID   uint32
	PayloadLen uint16
	Rank       uint8 // recoder-rank field
	Reserved   uint8 // repurposed by the fountain codec to carry K
	Tag        [TagLen]byte
}

// Encode writes h into a fresh 32-byte buffer in wire order.
func (h *Header) Encode() [HeaderLen]byte {
	var b [HeaderLen]byte
	copy(b[0:4], Magic[:])
	b[4] = h.Version
	b[5] = uint8(h.Type)
	binary.BigEndian.PutUint16(b[6:8], h.GenID)
	binary.BigEndian.PutUint32(b[8:12], h.SymbolID)
	binary.BigEndian.PutUint16(b[12:14], h.PayloadLen)
	b[14] = h.Rank
	b[15] = h.Reserved
	copy(b[16:32], h.Tag[:])
	return b
}

// Decode parses a 32-byte buffer into a Header, rejecting a bad magic or an
// unrecognized type tag (spec.md §3 invariant).
func Decode(b []byte) (Header, error) {
	var h Header
	if len(b) < HeaderLen {
		return h, Errf(KindWireFormatError, "wire.Decode", fmt.Errorf("short header: %d bytes", len(b)))
	}
	if b[0] != Magic[0] || b[1] != Magic[1] || b[2] != Magic[2] || b[3] != Magic[3] {
		return h, Errf(KindWireFormatError, "wire.Decode", fmt.Errorf("bad magic"))
	}
	h.Version = b[4]
	h.Type = Type(b[5])
	if !h.Type.IsKnown() {
		return h, Errf(KindWireFormatError, "wire.Decode", fmt.Errorf("unknown type tag 0x%02x", b[5]))
	}
	h.GenID = binary.BigEndian.Uint16(b[6:8])
	h.SymbolID = binary.BigEndian.Uint32(b[8:12])
	h.PayloadLen = binary.BigEndian.Uint16(b[12:14])
	h.Rank = b[14]
	h.Reserved = b[15]
	copy(h.Tag[:], b[16:32])
	return h, nil
}

// AADBytes returns the 32-byte header with the tag field zeroed, as used
// for AEAD additional-authenticated-data (spec.md §4.2).
func (h *Header) AADBytes() [HeaderLen]byte {
	b := h.Encode()
	for i := 16; i < 32; i++ {
		b[i] = 0
	}
	return b
}
