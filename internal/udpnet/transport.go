// Package udpnet implements hal.Transport over a real net.UDPConn
// (spec.md §6). It generalizes link.Handshake's dial/deadline pattern
// from TCP+TLS to a connectionless UDP socket: no handshake of its own,
// just framed reads and writes with a short read deadline so the kernel's
// single-threaded poll loop never blocks indefinitely on one call.
package udpnet

import (
	"fmt"
	"net"
	"time"

	"github.com/duskwire/duskwire/hal"
)

// defaultMTU is the path MTU Properties reports; there is no explicit
// discovery.
const defaultMTU = 1400

// pollTimeout bounds each underlying ReadFromUDP so Recv never blocks the
// cooperative poll loop for more than this long.
const pollTimeout = 2 * time.Millisecond

// Transport is a hal.Transport backed by one bound UDP socket.
type Transport struct {
	conn       *net.UDPConn
	bandwidth  uint64
	mtu        int
	isReliable bool
}

// Listen binds addr (e.g. ":9443" for a hub, "" for an ephemeral node
// port) and returns a ready Transport.
func Listen(addr string, bandwidthBps uint64) (*Transport, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udpnet.Listen: resolve %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("udpnet.Listen: %w", err)
	}
	return &Transport{conn: conn, bandwidth: bandwidthBps, mtu: defaultMTU}, nil
}

// Close releases the underlying socket.
func (t *Transport) Close() error {
	return t.conn.Close()
}

func (t *Transport) Properties() hal.TransportProperties {
	return hal.TransportProperties{
		MTU:          t.mtu,
		BandwidthBps: t.bandwidth,
		IsReliable:   t.isReliable,
	}
}

// Send writes frame to peer. peer must be a *net.UDPAddr; any other value,
// including nil, is rejected with an error (duskwire always supplies an
// explicit peer).
func (t *Transport) Send(frame []byte, peer net.Addr) (int, error) {
	udpPeer, ok := peer.(*net.UDPAddr)
	if !ok {
		return 0, fmt.Errorf("udpnet.Send: peer is not a *net.UDPAddr: %T", peer)
	}
	n, err := t.conn.WriteToUDP(frame, udpPeer)
	if err != nil {
		return n, fmt.Errorf("udpnet.Send: %w", err)
	}
	return n, nil
}

// Recv reads one datagram, waiting at most pollTimeout before returning
// hal.ErrWouldBlock.
func (t *Transport) Recv(buf []byte) (int, net.Addr, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
		return 0, nil, fmt.Errorf("udpnet.Recv: set deadline: %w", err)
	}
	n, peer, err := t.conn.ReadFromUDP(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, nil, hal.ErrWouldBlock
		}
		return 0, nil, fmt.Errorf("udpnet.Recv: %w", err)
	}
	return n, peer, nil
}

// RecvBatch falls back to the scalar hal.DefaultRecvBatch: a real
// batched recvmmsg path is an OS-specific extension out of scope here.
func (t *Transport) RecvBatch(bufs [][]byte, meta []hal.RecvResult) (int, error) {
	return hal.DefaultRecvBatch(t, bufs, meta)
}

// SendGSO falls back to the scalar hal.DefaultSendGSO.
func (t *Transport) SendGSO(superPacket []byte, peer net.Addr, segmentSize int) (int, error) {
	return hal.DefaultSendGSO(t, superPacket, peer, segmentSize)
}
