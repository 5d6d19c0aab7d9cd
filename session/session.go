// Package session holds per-peer mutable state (spec.md §4.6): the
// handshake progress, cipher, fragment assembler, and liveness timestamp
// the kernel consults on every datagram, plus the hub-side inner-IP
// routing table.
package session

import (
	"net"
	"time"

	"github.com/duskwire/duskwire/aead"
	"github.com/duskwire/duskwire/fountain"
	"github.com/duskwire/duskwire/fragment"
	"github.com/duskwire/duskwire/pqc"
)

// Session is one peer's state, created on first ClientHello (hub) or
// first outbound handshake (node) and mutated in place by the kernel for
// the rest of its life (spec.md §4.6).
type Session struct {
	Peer net.Addr

	// Cipher is nil until the handshake completes.
	Cipher *aead.Cipher

	// Pending is set on the initiating side between sending a ClientHello
	// and receiving the peer's response; cleared (its private key
	// reference dropped) once the handshake completes or is abandoned.
	Pending *pqc.ClientState

	TxSeq       uint32
	LastValidRx time.Time

	// VIP is the tunnel-assigned virtual IPv4, set once known. Absent
	// (nil) until the hub or node assigns one.
	VIP net.IP

	Assembler *fragment.Assembler

	// Encoder is the kernel's current outbound fountain encoder for this
	// peer, nil when there is nothing in flight (spec.md §4.9 egress step).
	Encoder *fountain.Encoder
	// EncoderBudget caps the total symbols (systematic + repair) the
	// kernel will emit for Encoder before giving up on that generation.
	EncoderBudget int
	// EncoderSent counts symbols already emitted for Encoder.
	EncoderSent int

	// Decoders holds one in-progress fountain decoder per generation id
	// currently being reassembled from this peer.
	Decoders map[uint16]*fountain.Decoder
}

// New returns a freshly created session for peer, with its own assembler.
func New(peer net.Addr, now time.Time) *Session {
	return &Session{
		Peer:        peer,
		Assembler:   fragment.New(),
		LastValidRx: now,
		Decoders:    make(map[uint16]*fountain.Decoder),
	}
}

// DecoderFor returns the in-progress decoder for genID, creating one with
// the given source-symbol count and symbol size on first use.
func (s *Session) DecoderFor(genID uint16, k, symbolSize int) (*fountain.Decoder, error) {
	if d, ok := s.Decoders[genID]; ok {
		return d, nil
	}
	d, err := fountain.NewDecoder(genID, k, symbolSize)
	if err != nil {
		return nil, err
	}
	s.Decoders[genID] = d
	return d, nil
}

// DropDecoder discards the decoder for genID, e.g. once its payload has
// been fully recovered and delivered.
func (s *Session) DropDecoder(genID uint16) {
	delete(s.Decoders, genID)
}

// Touch records now as the last time a validly-decrypted datagram arrived
// from this peer — called on every successful decrypt, never on mere
// receipt (spec.md §4.6).
func (s *Session) Touch(now time.Time) {
	s.LastValidRx = now
}

// Established reports whether the handshake has completed and Cipher is
// usable.
func (s *Session) Established() bool {
	return s.Cipher != nil
}

// AbandonHandshake discards in-flight KEM state, e.g. on a timeout or a
// mismatched response; safe to call repeatedly.
func (s *Session) AbandonHandshake() {
	if s.Pending != nil {
		s.Pending.Close()
		s.Pending = nil
	}
}

// Rekey installs a freshly derived cipher and discards every piece of
// fountain-coding state tied to the old key: a completed handshake means
// any in-flight generations were encoded or are being decoded under a key
// this session no longer has, so the only correct move is to drop them
// and let the higher layers retransmit (spec.md §4.6 rekey-on-handshake).
func (s *Session) Rekey(cipher *aead.Cipher) {
	s.Cipher = cipher
	s.Encoder = nil
	s.EncoderBudget = 0
	s.EncoderSent = 0
	s.Decoders = make(map[uint16]*fountain.Decoder)
	s.AbandonHandshake()
}
