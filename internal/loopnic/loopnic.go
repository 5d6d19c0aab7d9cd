// Package loopnic implements an in-memory hal.VirtualNIC over buffered
// channels, standing in for a real TUN device in tests and local
// bring-up (spec.md §6, §9: TUN/TAP bring-up is an external collaborator
// boundary the kernel does not own).
package loopnic

import (
	"github.com/duskwire/duskwire/hal"
)

// queueDepth bounds each direction's backlog; once a queue is full, Send
// and Inject return hal.ErrWouldBlock.
const queueDepth = 256

// NIC is a paired channel loopback: packets pushed with Inject appear on
// Recv (simulating the host stack handing packets down to be
// encapsulated), and packets written with Send can be drained with
// Delivered (simulating the host stack receiving decapsulated packets).
type NIC struct {
	toWire   chan []byte
	fromWire chan []byte
}

// New returns an idle loopback NIC.
func New() *NIC {
	return &NIC{
		toWire:   make(chan []byte, queueDepth),
		fromWire: make(chan []byte, queueDepth),
	}
}

var _ hal.VirtualNIC = (*NIC)(nil)

// Send delivers packet to whatever is draining Delivered — the kernel
// calls this with a decapsulated inner IPv4 packet bound for the local
// host stack.
func (n *NIC) Send(packet []byte) error {
	cp := make([]byte, len(packet))
	copy(cp, packet)
	select {
	case n.fromWire <- cp:
		return nil
	default:
		return hal.ErrWouldBlock
	}
}

// Recv returns the next packet queued by Inject, or (0, ErrWouldBlock) if
// none is pending. The kernel calls this to pick up outbound traffic to
// encapsulate.
func (n *NIC) Recv(buf []byte) (int, error) {
	select {
	case p := <-n.toWire:
		n2 := copy(buf, p)
		return n2, nil
	default:
		return 0, hal.ErrWouldBlock
	}
}

// Inject queues packet as if the host stack had handed it down for
// encapsulation. Used by tests to drive the kernel's egress path.
func (n *NIC) Inject(packet []byte) error {
	cp := make([]byte, len(packet))
	copy(cp, packet)
	select {
	case n.toWire <- cp:
		return nil
	default:
		return hal.ErrWouldBlock
	}
}

// Delivered returns the next packet the kernel handed up via Send, or
// (nil, false) if none is pending. Used by tests to observe the kernel's
// ingress path.
func (n *NIC) Delivered() ([]byte, bool) {
	select {
	case p := <-n.fromWire:
		return p, true
	default:
		return nil, false
	}
}
