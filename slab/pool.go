// Package slab implements the fixed-capacity frame pool the kernel leases
// ingress/egress buffers from (spec.md §4.8): fixed-count, 64-byte-aligned
// 10 KiB frames behind a single mutex, zeroed on release.
package slab

import (
	"sync"
	"unsafe"
)

// FrameSize is the fixed frame capacity (spec.md §3: "10 KiB").
const FrameSize = 10 * 1024

// Alignment is the required buffer alignment (spec.md §3: "64-byte
// aligned").
const Alignment = 64

// Frame is a fixed-size buffer with a length field. Exclusively owned by
// whoever holds its Lease for the lease's lifetime. Data is sliced out of
// an over-allocated backing array so its address is a multiple of
// Alignment — a plain [FrameSize]byte field has no such guarantee.
type Frame struct {
	backing []byte
	Data    []byte
	Len     int
}

func newAlignedFrame() *Frame {
	backing := make([]byte, FrameSize+Alignment)
	addr := uintptr(unsafe.Pointer(&backing[0]))
	offset := (Alignment - int(addr%Alignment)) % Alignment
	return &Frame{
		backing: backing,
		Data:    backing[offset : offset+FrameSize : offset+FrameSize],
	}
}

// Pool is a fixed number of pre-allocated frames behind a mutex. Alloc
// yields a Lease or nothing when empty — that emptiness is a
// back-pressure signal to the ingress batcher (spec.md §3).
type Pool struct {
	mu   sync.Mutex
	free []*Frame
}

// New allocates n frames and pre-faults each one by touching its first and
// last bytes, forcing physical-page assignment before steady-state
// operation (spec.md §4.8).
func New(n int) *Pool {
	p := &Pool{free: make([]*Frame, 0, n)}
	for i := 0; i < n; i++ {
		f := newAlignedFrame()
		// Pre-fault: touch first and last bytes to force physical-page
		// assignment before steady-state operation.
		f.Data[0] = 0
		f.Data[FrameSize-1] = 0
		p.free = append(p.free, f)
	}
	return p
}

// Cap returns the total number of frames this pool was created with.
func (p *Pool) Cap() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return cap(p.free)
}

// Available returns the number of frames currently free.
func (p *Pool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Lease is an exclusive handle to one pooled Frame. Release must be
// called exactly once to return the frame to its pool.
type Lease struct {
	pool  *Pool
	frame *Frame
}

// Alloc takes a frame from the pool, or returns nil if the pool is empty.
func (p *Pool) Alloc() *Lease {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.free)
	if n == 0 {
		return nil
	}
	f := p.free[n-1]
	p.free = p.free[:n-1]
	return &Lease{pool: p, frame: f}
}

// Frame returns the leased frame for reading.
func (l *Lease) Frame() *Frame { return l.frame }

// Release zeroes the frame and returns it to the pool.
func (l *Lease) Release() {
	for i := range l.frame.Data {
		l.frame.Data[i] = 0
	}
	l.frame.Len = 0
	l.pool.mu.Lock()
	l.pool.free = append(l.pool.free, l.frame)
	l.pool.mu.Unlock()
	l.frame = nil
}
