// Package fragment reassembles oversize handshake payloads that were
// chunked to fit unreliable datagrams (spec.md §4.4).
package fragment

import (
	"encoding/binary"

	"github.com/duskwire/duskwire/wire"
)

// headerLen is the fragment wire-form prefix: total_len(2) + offset(2).
const headerLen = 4

// Assembler holds one growing buffer for one peer's in-flight handshake
// message. Not safe for concurrent use; the kernel owns one per session.
type Assembler struct {
	buf      []byte
	totalLen int
	active   bool
}

// New returns an idle assembler.
func New() *Assembler {
	return &Assembler{}
}

// Feed processes one fragment's payload: [total_len u16 BE][offset u16 BE][data].
// maxCapacity bounds total_len against the frame capacity (spec.md §4.4).
// Returns (message, true, nil) as soon as a fragment with offset+len equal to
// total_len arrives, resetting the assembler; whether the earlier ranges of
// the buffer were filled is not tracked. Mismatched total_len across fragments resets the assembler
// and reports InvalidState; out-of-range offset+len reports WireFormatError.
func (a *Assembler) Feed(payload []byte, maxCapacity int) ([]byte, bool, error) {
	if len(payload) < headerLen {
		return nil, false, wire.Errf(wire.KindWireFormatError, "fragment.Feed", nil)
	}
	totalLen := int(binary.BigEndian.Uint16(payload[0:2]))
	offset := int(binary.BigEndian.Uint16(payload[2:4]))
	data := payload[headerLen:]

	if totalLen > maxCapacity {
		return nil, false, wire.Errf(wire.KindWireFormatError, "fragment.Feed", nil)
	}

	if !a.active {
		a.buf = make([]byte, totalLen)
		a.totalLen = totalLen
		a.active = true
	} else if totalLen != a.totalLen {
		a.Reset()
		return nil, false, wire.Errf(wire.KindInvalidState, "fragment.Feed", nil)
	}

	end := offset + len(data)
	if offset < 0 || end > a.totalLen {
		return nil, false, wire.Errf(wire.KindWireFormatError, "fragment.Feed", nil)
	}

	// No duplicate-fragment detection; idempotent overwrite is permitted.
	copy(a.buf[offset:end], data)

	if end == a.totalLen {
		msg := a.buf
		a.Reset()
		return msg, true, nil
	}
	return nil, false, nil
}

// Reset discards any in-progress reassembly.
func (a *Assembler) Reset() {
	a.buf = nil
	a.totalLen = 0
	a.active = false
}

// Chunks splits msg into chunkSize-byte pieces, each already wrapped in the
// fragment wire form, ready to be embedded as the payload of a Data-shaped
// handshake cell (spec.md §4.9: 1000-byte fragmentation).
func Chunks(msg []byte, chunkSize int) [][]byte {
	total := len(msg)
	var out [][]byte
	for offset := 0; offset < total || (total == 0 && offset == 0); offset += chunkSize {
		end := offset + chunkSize
		if end > total {
			end = total
		}
		frag := make([]byte, headerLen+(end-offset))
		binary.BigEndian.PutUint16(frag[0:2], uint16(total))
		binary.BigEndian.PutUint16(frag[2:4], uint16(offset))
		copy(frag[headerLen:], msg[offset:end])
		out = append(out, frag)
		if total == 0 {
			break
		}
	}
	return out
}
