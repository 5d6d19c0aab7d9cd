package slab

import (
	"testing"
	"unsafe"
)

func TestAllocExhaustsAndRefills(t *testing.T) {
	p := New(2)
	l1 := p.Alloc()
	l2 := p.Alloc()
	if l1 == nil || l2 == nil {
		t.Fatal("expected two leases from a pool of 2")
	}
	if l3 := p.Alloc(); l3 != nil {
		t.Fatal("expected nil lease when pool is empty")
	}
	if p.Available() != 0 {
		t.Fatalf("expected 0 available, got %d", p.Available())
	}

	l1.Release()
	if p.Available() != 1 {
		t.Fatalf("expected 1 available after release, got %d", p.Available())
	}
	if l := p.Alloc(); l == nil {
		t.Fatal("expected a lease to be available after release")
	}
}

func TestZeroOnRelease(t *testing.T) {
	// spec.md §8 invariant: after a lease is returned, the next lease's
	// data is all-zero.
	p := New(1)
	l := p.Alloc()
	f := l.Frame()
	for i := range f.Data {
		f.Data[i] = 0xFF
	}
	f.Len = 123
	l.Release()

	l2 := p.Alloc()
	f2 := l2.Frame()
	for i, b := range f2.Data {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, b)
		}
	}
	if f2.Len != 0 {
		t.Fatalf("expected Len 0, got %d", f2.Len)
	}
}

func TestFramesAreAligned(t *testing.T) {
	p := New(8)
	for i := 0; i < 8; i++ {
		l := p.Alloc()
		addr := uintptr(unsafe.Pointer(&l.Frame().Data[0]))
		if addr%Alignment != 0 {
			t.Fatalf("frame %d not %d-byte aligned: addr=%x", i, Alignment, addr)
		}
	}
}
