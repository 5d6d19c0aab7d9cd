// Package jitter implements a release-time priority queue for
// control-loop playout (spec.md §2, optional 3% share): packets are
// pushed with an origin timestamp and popped once "now" reaches
// origin+depth, with late arrivals dropped and counted rather than
// played out early.
package jitter

import (
	"container/heap"
	"time"
)

// Packet is one buffered item, keyed by its origin timestamp.
type Packet struct {
	Origin  time.Time
	Payload []byte
}

type item struct {
	release time.Time
	packet  Packet
	index   int
}

type itemHeap []*item

func (h itemHeap) Len() int            { return len(h) }
func (h itemHeap) Less(i, j int) bool  { return h[i].release.Before(h[j].release) }
func (h itemHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *itemHeap) Push(x interface{}) {
	it := x.(*item)
	it.index = len(*h)
	*h = append(*h, it)
}
func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Buffer is a min-heap keyed by release time = origin + depth.
// Not safe for concurrent use.
type Buffer struct {
	depth time.Duration
	h     itemHeap
	late  int
}

// New returns an empty jitter buffer with the given playout depth.
func New(depth time.Duration) *Buffer {
	return &Buffer{depth: depth}
}

// Push inserts p, scheduling it for release at p.Origin + depth. If now is
// already past that release time by more than depth (a very late arrival),
// the packet is dropped and the late counter is incremented instead of
// being queued (spec.md §8 scenario 6).
func (b *Buffer) Push(p Packet, now time.Time) {
	release := p.Origin.Add(b.depth)
	if now.Sub(release) > b.depth {
		b.late++
		return
	}
	heap.Push(&b.h, &item{release: release, packet: p})
}

// Pop returns the earliest-release packet if its release time has passed,
// or (Packet{}, false) if the buffer is empty or the earliest item isn't
// due yet.
func (b *Buffer) Pop(now time.Time) (Packet, bool) {
	if len(b.h) == 0 {
		return Packet{}, false
	}
	next := b.h[0]
	if now.Before(next.release) {
		return Packet{}, false
	}
	heap.Pop(&b.h)
	return next.packet, true
}

// Len returns the number of packets currently queued.
func (b *Buffer) Len() int { return len(b.h) }

// LateCount returns the number of packets dropped for arriving too late.
func (b *Buffer) LateCount() int { return b.late }
