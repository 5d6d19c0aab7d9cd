package kernel

import (
	"net"
	"time"

	"github.com/duskwire/duskwire/aead"
	"github.com/duskwire/duskwire/fragment"
	"github.com/duskwire/duskwire/hal"
	"github.com/duskwire/duskwire/pqc"
	"github.com/duskwire/duskwire/session"
	"github.com/duskwire/duskwire/slab"
	"github.com/duskwire/duskwire/wire"
)

// ingressBatch leases frames, issues one batched receive, and dispatches
// each datagram to the per-packet handler (spec.md §4.9 step 2).
func (k *Kernel) ingressBatch(now time.Time) bool {
	n := k.cfg.IngressBatchSizeOrDefault()
	var leases []*slab.Lease
	bufs := make([][]byte, 0, n)
	meta := make([]hal.RecvResult, n)

	for len(leases) < n {
		l := k.pool.Alloc()
		if l == nil {
			break
		}
		leases = append(leases, l)
		bufs = append(bufs, l.Frame().Data)
	}
	defer func() {
		for _, l := range leases {
			l.Release()
		}
	}()
	if len(bufs) == 0 {
		return false
	}

	count, err := k.transport.RecvBatch(bufs, meta[:len(bufs)])
	if err != nil && err != hal.ErrWouldBlock {
		k.logger.Warn("ingress: recv batch failed", "err", err)
	}
	if count == 0 {
		return false
	}

	for i := 0; i < count; i++ {
		peer := meta[i].Peer
		buf := bufs[i][:meta[i].Len]
		if !k.allowedPeer(peer) {
			k.droppedPreHandshake++
			continue
		}
		k.handleDatagram(buf, peer, now)
	}
	return true
}

// allowedPeer enforces the hub's IPv4-only policy (spec.md §6). Node mode
// accepts anything since it has exactly one configured upstream.
func (k *Kernel) allowedPeer(peer net.Addr) bool {
	if !k.isHub() {
		return true
	}
	udpAddr, ok := peer.(*net.UDPAddr)
	if !ok {
		return false
	}
	return udpAddr.IP.To4() != nil
}

func (k *Kernel) isHub() bool {
	return k.routes != nil
}

// handleDatagram parses the header and dispatches by type
// (spec.md §4.9 step 3).
func (k *Kernel) handleDatagram(buf []byte, peer net.Addr, now time.Time) {
	h, payload, err := parseFrame(buf)
	if err != nil {
		if _, known := k.sessions.Get(peer); k.isHub() && !known {
			// Pre-handshake garbage such as a node's wake-up burst: count
			// it, don't log it.
			k.droppedPreHandshake++
			return
		}
		k.logger.Debug("ingress: malformed datagram", "peer", peer, "err", err)
		return
	}

	s, exists := k.sessions.Get(peer)
	if !exists {
		switch {
		case k.isHub() && h.Type == wire.TypeClientHello:
			s = k.sessions.GetOrCreate(peer, now)
		case !k.isHub():
			s = k.sessions.GetOrCreate(peer, now)
		default:
			k.droppedPreHandshake++
			return
		}
	}

	switch h.Type {
	case wire.TypeClientHello:
		if k.isHub() {
			k.handleClientHello(s, peer, payload, now)
		}
	case wire.TypeHandshakeInit:
		if !k.isHub() {
			k.handleHandshakeInit(s, payload, now)
		}
	case wire.TypeData, wire.TypeCoded:
		k.handleDataOrCoded(s, peer, h, payload, now)
	default:
		// Other types are ignored at the core (spec.md §4.9). Wake-up
		// burst datagrams never get here: they fail parseFrame above.
	}
}

// handleClientHello reassembles a ClientHello, completes the responder
// side of the KEM handshake, and replies with a signed HandshakeInit
// (spec.md §4.9 step 3, hub branch).
func (k *Kernel) handleClientHello(s *session.Session, peer net.Addr, payload []byte, now time.Time) {
	msg, done, err := s.Assembler.Feed(payload, slab.FrameSize)
	if err != nil {
		k.logger.Debug("handshake: ClientHello reassembly failed", "peer", peer, "err", err)
		return
	}
	if !done {
		return
	}

	pk, err := pqc.UnmarshalPublicKey(msg)
	if err != nil {
		k.logger.Warn("handshake: bad ClientHello public key", "peer", peer, "err", err)
		return
	}
	ct, ss, err := pqc.Encapsulate(pk)
	if err != nil {
		k.logger.Warn("handshake: encapsulate failed", "peer", peer, "err", err)
		return
	}
	key, err := pqc.DeriveSessionKey(ss)
	if err != nil {
		k.logger.Warn("handshake: derive session key failed", "peer", peer, "err", err)
		return
	}
	cipher, err := aead.New(key)
	if err != nil {
		k.logger.Warn("handshake: derive AEAD failed", "peer", peer, "err", err)
		return
	}

	sig := k.signer.Sign(ct)
	resp := make([]byte, 0, len(ct)+len(sig))
	resp = append(resp, ct...)
	resp = append(resp, sig...)

	chunks := fragment.Chunks(resp, fragmentChunkSize())
	if err := sendChunksAs(k.transport, peer, wire.TypeHandshakeInit, chunks); err != nil {
		k.logger.Warn("handshake: send HandshakeInit failed", "peer", peer, "err", err)
		return
	}
	s.Rekey(cipher)
	s.Touch(now)
}

// handleHandshakeInit reassembles the hub's response, verifies its
// signature, and installs the derived cipher (spec.md §4.9 step 3, node
// branch).
func (k *Kernel) handleHandshakeInit(s *session.Session, payload []byte, now time.Time) {
	msg, done, err := s.Assembler.Feed(payload, slab.FrameSize)
	if err != nil {
		k.logger.Debug("handshake: HandshakeInit reassembly failed", "err", err)
		return
	}
	if !done {
		return
	}
	if s.Pending == nil {
		k.logger.Debug("handshake: HandshakeInit with no pending handshake, dropping")
		return
	}

	ctLen := pqc.CiphertextSize
	if len(msg) < ctLen {
		k.logger.Warn("handshake: HandshakeInit too short")
		return
	}
	ct := msg[:ctLen]
	sig := msg[ctLen:]

	if err := k.verifier.Verify(ct, sig); err != nil {
		k.logger.Warn("handshake: HandshakeInit signature verification failed", "err", err)
		s.AbandonHandshake()
		return
	}

	ss, err := s.Pending.Decapsulate(ct)
	if err != nil {
		k.logger.Warn("handshake: decapsulate failed", "err", err)
		return
	}
	key, err := pqc.DeriveSessionKey(ss)
	if err != nil {
		k.logger.Warn("handshake: derive session key failed", "err", err)
		return
	}
	cipher, err := aead.New(key)
	if err != nil {
		k.logger.Warn("handshake: derive AEAD failed", "err", err)
		return
	}
	s.Rekey(cipher)
	s.Touch(now)
}
