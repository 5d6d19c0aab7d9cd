// Package hal defines the narrow capability interfaces the kernel
// consumes instead of binding directly to concrete OS facilities
// (spec.md §6, §9): a datagram transport, a wall clock, and a source of
// random bytes plus a signer. Concrete implementations (real UDP
// sockets, OS-specific batched I/O, TUN/TAP devices) live outside this
// package and the kernel it supports.
package hal

import (
	"net"
	"time"
)

// TransportProperties describes the capabilities of a datagram transport.
type TransportProperties struct {
	MTU          int
	BandwidthBps uint64
	IsReliable   bool
}

// RecvResult is one datagram returned by a batched receive.
type RecvResult struct {
	Len  int
	Peer net.Addr
}

// Transport is the abstract physical datagram interface the kernel's
// ingress/egress paths consume (spec.md §6).
type Transport interface {
	Properties() TransportProperties

	// Send transmits frame to peer (nil peer means "the configured
	// default", used by nodes). Returns bytes written, or (0, ErrWouldBlock).
	Send(frame []byte, peer net.Addr) (int, error)

	// Recv reads one datagram into buf. Returns (0, nil, ErrWouldBlock)
	// when nothing is available.
	Recv(buf []byte) (int, net.Addr, error)

	// RecvBatch fills bufs with up to len(bufs) datagrams, returning the
	// count actually filled. The default implementation below falls back
	// to repeated Recv calls; a transport MAY override with a real
	// batched syscall.
	RecvBatch(bufs [][]byte, meta []RecvResult) (int, error)

	// SendGSO sends superPacket as a run of segmentSize-byte segments to
	// peer. The default implementation fans out to repeated Send calls;
	// a transport MAY override with generic segmentation offload.
	SendGSO(superPacket []byte, peer net.Addr, segmentSize int) (int, error)
}

// ErrWouldBlock signals "no more work of this kind right now" — the
// kernel treats it as non-fatal and moves on (spec.md §5).
var ErrWouldBlock = errWouldBlock{}

type errWouldBlock struct{}

func (errWouldBlock) Error() string { return "hal: would block" }

// Clock is the abstract wall clock the kernel and pacer read time from.
type Clock interface {
	NowUs() int64
	// PtpNs is optional hardware-timestamp precision; implementations
	// that lack it return (0, false).
	PtpNs() (int64, bool)
}

// SystemClock is the default Clock backed by the OS wall clock
// (time.Now as Unix microseconds).
type SystemClock struct{}

func (SystemClock) NowUs() int64 {
	return time.Now().UnixMicro()
}

func (SystemClock) PtpNs() (int64, bool) {
	return 0, false
}

// RandSigner is the abstract source of random bytes and of hub-identity
// signatures (spec.md §6). A production implementation may route
// sign_digest through an HSM; duskwire's default backs it with an
// in-process pqc.Signer.
type RandSigner interface {
	RandomBytes(buf []byte) error
	SignDigest(digest []byte, sigBuf []byte) (int, error)
	PanicAndSanitize()
}

// DefaultSendGSO is the default SendGSO fallback: scalar fan-out over Send.
// Transport implementations embed this (or call it) when they have no
// native segmentation offload.
func DefaultSendGSO(t Transport, superPacket []byte, peer net.Addr, segmentSize int) (int, error) {
	total := 0
	for off := 0; off < len(superPacket); off += segmentSize {
		end := off + segmentSize
		if end > len(superPacket) {
			end = len(superPacket)
		}
		n, err := t.Send(superPacket[off:end], peer)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// DefaultRecvBatch is the default RecvBatch fallback: repeated Recv calls
// until ErrWouldBlock or the buffer slice is exhausted.
func DefaultRecvBatch(t Transport, bufs [][]byte, meta []RecvResult) (int, error) {
	count := 0
	for i := range bufs {
		n, peer, err := t.Recv(bufs[i])
		if err == ErrWouldBlock {
			break
		}
		if err != nil {
			return count, err
		}
		meta[i] = RecvResult{Len: n, Peer: peer}
		count++
	}
	return count, nil
}

// VirtualNIC is the kernel's abstract tunnel interface: decrypted inner
// IPv4 packets arrive via Recv, and the kernel pushes inner packets bound
// for the host stack out through Send. A production implementation wraps
// an OS TUN device; duskwire's default is an in-memory loopback for tests
// and local bring-up (spec.md §6).
type VirtualNIC interface {
	// Send writes one inner IPv4 packet up to the host stack.
	Send(packet []byte) error
	// Recv reads one inner IPv4 packet queued by the host stack for
	// encapsulation. Returns (0, ErrWouldBlock) when nothing is queued.
	Recv(buf []byte) (int, error)
}
