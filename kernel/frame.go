package kernel

import (
	"fmt"
	"net"

	"github.com/duskwire/duskwire/hal"
	"github.com/duskwire/duskwire/wire"
)

// sendFrame serializes h and payload into one datagram and hands it to
// the transport.
func sendFrame(t hal.Transport, peer net.Addr, h wire.Header, payload []byte) error {
	h.PayloadLen = uint16(len(payload))
	enc := h.Encode()
	buf := make([]byte, wire.HeaderLen+len(payload))
	copy(buf, enc[:])
	copy(buf[wire.HeaderLen:], payload)
	_, err := t.Send(buf, peer)
	if err != nil {
		return fmt.Errorf("kernel.sendFrame: %w", err)
	}
	return nil
}

// parseFrame splits a received datagram into its header and payload,
// validating the declared payload length against what actually arrived.
func parseFrame(buf []byte) (wire.Header, []byte, error) {
	h, err := wire.Decode(buf)
	if err != nil {
		return h, nil, err
	}
	payload := buf[wire.HeaderLen:]
	if int(h.PayloadLen) != len(payload) {
		return h, nil, wire.Errf(wire.KindWireFormatError, "kernel.parseFrame",
			fmt.Errorf("declared payload_len %d != actual %d", h.PayloadLen, len(payload)))
	}
	return h, payload, nil
}

// sendChunksAs sends each chunk (as built by fragment.Chunks) as its own
// datagram of the given handshake type, unencrypted (spec.md §4.9:
// handshake framing predates any session cipher).
func sendChunksAs(t hal.Transport, peer net.Addr, typ wire.Type, chunks [][]byte) error {
	for i, c := range chunks {
		h := wire.Header{
			Version:  wire.Version,
			Type:     typ,
			SymbolID: uint32(i),
		}
		if err := sendFrame(t, peer, h, c); err != nil {
			return err
		}
	}
	return nil
}
