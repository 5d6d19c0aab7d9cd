package kernel

import (
	"encoding/binary"
	"net"
	"time"

	"github.com/duskwire/duskwire/session"
	"github.com/duskwire/duskwire/wire"
)

// lengthPrefixSize is the 2-byte original-length header the egress path
// prepends to every payload before fountain-encoding it: the decoder only
// knows symbol-sized chunks, so the true message length has to ride
// inside the encoded data itself rather than on the wire header.
const lengthPrefixSize = 2

// handleDataOrCoded decrypts a Data or Coded datagram, feeds it to the
// per-generation fountain decoder, and on full recovery delivers the
// payload to the virtual NIC (spec.md §4.9 step 3, Data/Coded branch).
func (k *Kernel) handleDataOrCoded(s *session.Session, peer net.Addr, h wire.Header, payload []byte, now time.Time) {
	if !s.Established() {
		return
	}
	if err := s.Cipher.DecryptDetached(&h, payload); err != nil {
		k.logger.Debug("data: decrypt failed", "peer", peer, "err", err)
		return
	}
	s.Touch(now)

	kCount := int(h.Reserved)
	if kCount == 0 {
		kCount = 1
	}
	decoder, err := s.DecoderFor(h.GenID, kCount, len(payload))
	if err != nil {
		k.logger.Debug("data: decoder construction failed", "peer", peer, "err", err)
		return
	}

	recovered, done, err := decoder.ReceiveSymbol(h.GenID, h.SymbolID, payload)
	if err != nil {
		k.logger.Debug("data: receive symbol rejected", "peer", peer, "err", err)
		return
	}
	if !done {
		return
	}
	s.DropDecoder(h.GenID)

	inner, ok := unwrapLengthPrefix(recovered)
	if !ok {
		k.logger.Debug("data: recovered payload too short for its length prefix")
		return
	}

	if k.isHub() && len(inner) >= 20 {
		srcIP := net.IPv4(inner[12], inner[13], inner[14], inner[15])
		k.routes.Learn(srcIP, peer, now)
	}

	if err := k.nic.Send(inner); err != nil {
		k.logger.Debug("data: delivering decoded payload to NIC failed", "err", err)
	}
}

// wrapLengthPrefix prepends payload's true length so the fountain decoder's
// symbol-padded output can later be trimmed back to the original message.
func wrapLengthPrefix(payload []byte) []byte {
	out := make([]byte, lengthPrefixSize+len(payload))
	binary.BigEndian.PutUint16(out[:lengthPrefixSize], uint16(len(payload)))
	copy(out[lengthPrefixSize:], payload)
	return out
}

// unwrapLengthPrefix reverses wrapLengthPrefix, trimming the fountain
// decoder's symbol-sized zero padding off the tail.
func unwrapLengthPrefix(recovered []byte) ([]byte, bool) {
	if len(recovered) < lengthPrefixSize {
		return nil, false
	}
	n := int(binary.BigEndian.Uint16(recovered[:lengthPrefixSize]))
	end := lengthPrefixSize + n
	if end > len(recovered) {
		return nil, false
	}
	return recovered[lengthPrefixSize:end], true
}
