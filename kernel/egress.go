package kernel

import (
	"net"
	"time"

	"github.com/duskwire/duskwire/config"
	"github.com/duskwire/duskwire/fountain"
	"github.com/duskwire/duskwire/hal"
	"github.com/duskwire/duskwire/session"
	"github.com/duskwire/duskwire/wire"
)

// egressBatch pumps whichever sessions have an in-flight fountain
// encoder, then tops up idle sessions from the application-to-wire queue
// (spec.md §4.9 step 5).
func (k *Kernel) egressBatch(now time.Time) bool {
	worked := false
	if k.pumpEncoders(now) {
		worked = true
	}
	if k.fillEncoders(now) {
		worked = true
	}
	return worked
}

// pumpEncoders emits pacer-gated symbols for every session with an active
// encoder, releasing the encoder once its budget is exhausted.
func (k *Kernel) pumpEncoders(now time.Time) bool {
	worked := false
	for _, s := range k.sessions.All() {
		if s.Encoder == nil || !s.Established() {
			continue
		}
		for s.EncoderSent < s.EncoderBudget {
			cost := k.cfg.SymbolSizeOrDefault() + wire.TagLen + wire.HeaderLen
			if k.pc.Balance() < int64(cost) {
				break
			}
			if !k.sendNextSymbol(s, now) {
				break
			}
			worked = true
		}
		if s.EncoderSent >= s.EncoderBudget {
			s.Encoder = nil
			s.EncoderSent = 0
			s.EncoderBudget = 0
		}
	}
	return worked
}

// sendNextSymbol encrypts and sends one symbol off s.Encoder, charging the
// pacer for the bytes actually placed on the wire.
func (k *Kernel) sendNextSymbol(s *session.Session, now time.Time) bool {
	symbolID, typ, payload, reserved := s.Encoder.NextPacket()
	h := wire.Header{
		Version:  wire.Version,
		Type:     typ,
		GenID:    s.Encoder.GenID(),
		SymbolID: symbolID,
		Reserved: reserved,
	}
	tag, err := s.Cipher.EncryptDetached(&h, payload)
	if err != nil {
		k.logger.Warn("egress: encrypt failed", "peer", s.Peer, "err", err)
		return false
	}
	h.Tag = tag
	if err := sendFrame(k.transport, s.Peer, h, payload); err != nil {
		k.logger.Warn("egress: send failed", "peer", s.Peer, "err", err)
		return false
	}
	k.pc.Consume(len(payload) + wire.HeaderLen)
	s.EncoderSent++
	return true
}

// fillEncoders drains up to DefaultAppQueueDrainPerPoll payloads from the
// virtual NIC, routes each to its destination session, and starts a fresh
// fountain encoder for any session that is currently idle
// (spec.md §4.9 step 5).
func (k *Kernel) fillEncoders(now time.Time) bool {
	worked := false
	for drained := 0; drained < config.DefaultAppQueueDrainPerPoll; drained++ {
		l := k.pool.Alloc()
		if l == nil {
			break
		}
		n, err := k.nic.Recv(l.Frame().Data)
		if err == hal.ErrWouldBlock {
			l.Release()
			break
		}
		if err != nil {
			l.Release()
			k.logger.Warn("egress: nic recv failed", "err", err)
			break
		}
		worked = true
		packet := append([]byte(nil), l.Frame().Data[:n]...)
		l.Release()

		s, ok := k.resolveDestination(packet, now)
		if !ok {
			continue
		}
		if s.Encoder != nil || !s.Established() {
			continue // busy or handshake not ready: this packet is dropped
		}

		wrapped := wrapLengthPrefix(packet)
		enc, err := fountain.NewEncoder(k.nextGenID, wrapped, k.cfg.SymbolSizeOrDefault())
		if err != nil {
			k.logger.Warn("egress: encoder construction failed", "err", err)
			continue
		}
		k.nextGenID++
		s.Encoder = enc
		s.EncoderSent = 0
		s.EncoderBudget = encoderBudget(enc.K())
	}
	return worked
}

// resolveDestination finds the session a freshly-read inner IPv4 packet
// should be encoded toward: a routing-table lookup by inner destination IP
// on the hub, or the single upstream session on a node (spec.md §4.9 step
// 5, §4.7).
func (k *Kernel) resolveDestination(packet []byte, now time.Time) (*session.Session, bool) {
	if !k.isHub() {
		return k.sessions.GetOrCreate(k.upstream, now), true
	}
	if len(packet) < 20 {
		return nil, false
	}
	dstIP := net.IPv4(packet[16], packet[17], packet[18], packet[19])
	peer, ok := k.routes.Lookup(dstIP, now)
	if !ok {
		return nil, false
	}
	s, ok := k.sessions.Get(peer)
	if !ok {
		return nil, false
	}
	return s, true
}

// encoderBudget caps how many symbols the kernel emits for one generation:
// every systematic symbol plus the LDPC parity count, plus a repair margin
// so a decoder that lost a handful of systematic symbols can still reach
// full rank without a retransmit request (the core has none).
func encoderBudget(k int) int {
	margin := k / 5
	if margin < 4 {
		margin = 4
	}
	return k + fountain.LDPCOverhead + margin
}
