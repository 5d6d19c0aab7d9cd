package fragment

import (
	"bytes"
	"testing"

	"github.com/duskwire/duskwire/wire"
)

func TestRoundTripViaChunks(t *testing.T) {
	msg := bytes.Repeat([]byte{0xAB}, 2500)
	frags := Chunks(msg, 1000)
	if len(frags) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(frags))
	}

	a := New()
	var got []byte
	var done bool
	for i, f := range frags {
		var err error
		got, done, err = a.Feed(f, 4096)
		if err != nil {
			t.Fatalf("fragment %d: %v", i, err)
		}
		if i < len(frags)-1 && done {
			t.Fatalf("assembled too early at fragment %d", i)
		}
	}
	if !done {
		t.Fatal("expected assembly to complete")
	}
	if !bytes.Equal(got, msg) {
		t.Fatal("reassembled message mismatch")
	}
}

func TestOutOfOrderFragments(t *testing.T) {
	msg := []byte("attack at dawn, twelve chars over one boundary")
	frags := Chunks(msg, 10)
	a := New()
	// Feed every fragment but the last one in reverse order, then the last
	// one: the assembler emits on the fragment that ends at total_len, so the
	// earlier fragments may arrive in any order before it.
	last := len(frags) - 1
	var order []int
	for i := last - 1; i >= 0; i-- {
		order = append(order, i)
	}
	order = append(order, last)
	var got []byte
	for n, i := range order {
		var done bool
		var err error
		got, done, err = a.Feed(frags[i], 1024)
		if err != nil {
			t.Fatal(err)
		}
		if n < len(order)-1 && done {
			t.Fatalf("assembled too early at fragment %d", i)
		}
		if n == len(order)-1 && !done {
			t.Fatal("expected completion after the final fragment fed")
		}
	}
	if !bytes.Equal(got, msg) {
		t.Fatal("out-of-order reassembly mismatch")
	}
}

func TestMismatchedTotalLenResets(t *testing.T) {
	a := New()
	first := make([]byte, headerLen+2)
	first[1] = 10 // total_len = 10
	if _, _, err := a.Feed(first, 1024); err != nil {
		t.Fatal(err)
	}

	second := make([]byte, headerLen+2)
	second[1] = 20 // different total_len
	_, _, err := a.Feed(second, 1024)
	if err == nil {
		t.Fatal("expected InvalidState on mismatched total_len")
	}
	if wire.KindOf(err) != wire.KindInvalidState {
		t.Fatalf("expected KindInvalidState, got %v", wire.KindOf(err))
	}
	if a.active {
		t.Fatal("assembler should be reset")
	}
}

func TestOutOfRangeOffsetRejected(t *testing.T) {
	a := New()
	frag := make([]byte, headerLen+10)
	frag[1] = 5            // total_len = 5
	frag[3] = 3            // offset = 3
	_, _, err := a.Feed(frag, 1024) // offset(3)+len(10) > total_len(5)
	if err == nil {
		t.Fatal("expected WireFormatError on out-of-range offset+len")
	}
	if wire.KindOf(err) != wire.KindWireFormatError {
		t.Fatalf("expected KindWireFormatError, got %v", wire.KindOf(err))
	}
}

func TestTotalLenExceedsCapacity(t *testing.T) {
	a := New()
	frag := make([]byte, headerLen)
	frag[0] = 0xFF
	frag[1] = 0xFF // total_len = 65535
	_, _, err := a.Feed(frag, 4096)
	if err == nil {
		t.Fatal("expected error when total_len exceeds frame capacity")
	}
}
