package jitter

import (
	"testing"
	"time"
)

func at(us int64) time.Time {
	return time.UnixMicro(us)
}

func TestPushPopReleaseTiming(t *testing.T) {
	// spec.md §8 scenario 6: push at origin 1,000,000us with a 50ms depth;
	// popping at +40ms returns nothing yet, popping at +50ms returns it.
	b := New(50 * time.Millisecond)
	b.Push(Packet{Origin: at(1_000_000), Payload: []byte("x")}, at(1_000_000))

	if _, ok := b.Pop(at(1_040_000)); ok {
		t.Fatal("expected no packet due yet at +40ms")
	}
	p, ok := b.Pop(at(1_050_000))
	if !ok {
		t.Fatal("expected packet to be due at +50ms")
	}
	if string(p.Payload) != "x" {
		t.Fatalf("unexpected payload: %q", p.Payload)
	}
}

func TestVeryLatePacketDroppedAndCounted(t *testing.T) {
	b := New(10 * time.Millisecond)
	// origin 1,000,000us, now 1,200,000us: release was due at 1,010,000us,
	// now is 190ms past that, well beyond one more depth window.
	b.Push(Packet{Origin: at(1_000_000), Payload: []byte("late")}, at(1_200_000))

	if b.Len() != 0 {
		t.Fatalf("expected the late packet to be dropped, queue len = %d", b.Len())
	}
	if b.LateCount() != 1 {
		t.Fatalf("expected late counter = 1, got %d", b.LateCount())
	}
}

func TestOrderingAcrossMultiplePushes(t *testing.T) {
	b := New(20 * time.Millisecond)
	b.Push(Packet{Origin: at(3_000_000), Payload: []byte("c")}, at(3_000_000))
	b.Push(Packet{Origin: at(1_000_000), Payload: []byte("a")}, at(1_000_000))
	b.Push(Packet{Origin: at(2_000_000), Payload: []byte("b")}, at(2_000_000))

	now := at(3_100_000)
	var order []string
	for {
		p, ok := b.Pop(now)
		if !ok {
			break
		}
		order = append(order, string(p.Payload))
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("unexpected release order: %v", order)
	}
}

func TestPopOnEmptyBuffer(t *testing.T) {
	b := New(10 * time.Millisecond)
	if _, ok := b.Pop(at(0)); ok {
		t.Fatal("expected no packet from an empty buffer")
	}
}
