package gf256

import "testing"

func TestMulInvertRoundTrip(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 1; b < 256; b++ {
			got := Mul(Mul(byte(a), byte(b)), Invert(byte(b)))
			if got != byte(a) {
				t.Fatalf("mul(mul(%d,%d), inv(%d)) = %d, want %d", a, b, b, got, a)
			}
		}
	}
}

func TestAESTestVector(t *testing.T) {
	if got := Mul(0x57, 0x83); got != 0xC1 {
		t.Fatalf("Mul(0x57, 0x83) = 0x%02x, want 0xC1", got)
	}
	if got := MulSafe(0x57, 0x83); got != 0xC1 {
		t.Fatalf("MulSafe(0x57, 0x83) = 0x%02x, want 0xC1", got)
	}
}

func TestMulMatchesMulSafeExhaustive(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			if Mul(byte(a), byte(b)) != MulSafe(byte(a), byte(b)) {
				t.Fatalf("Mul(%d,%d) != MulSafe(%d,%d)", a, b, a, b)
			}
		}
	}
}

func TestInvertZero(t *testing.T) {
	if Invert(0) != 0 {
		t.Fatal("Invert(0) must be 0")
	}
}

func TestRowAddScaled(t *testing.T) {
	src := make([]byte, 37)
	for i := range src {
		src[i] = byte(i * 7)
	}
	dest := make([]byte, 37)
	for i := range dest {
		dest[i] = byte(i * 3)
	}
	want := make([]byte, 37)
	copy(want, dest)
	for i, s := range src {
		want[i] ^= Mul(s, 0xAB)
	}
	RowAddScaled(dest, src, 0xAB)
	for i := range want {
		if dest[i] != want[i] {
			t.Fatalf("byte %d: got %d want %d", i, dest[i], want[i])
		}
	}
}

func TestRowAddScaledZeroFactorNoOp(t *testing.T) {
	dest := []byte{1, 2, 3}
	src := []byte{9, 9, 9}
	want := []byte{1, 2, 3}
	RowAddScaled(dest, src, 0)
	for i := range want {
		if dest[i] != want[i] {
			t.Fatalf("byte %d changed under zero factor", i)
		}
	}
}

func TestMatrixMulVec(t *testing.T) {
	m := NewMatrix(2, 3)
	m.Set(0, 0, 1)
	m.Set(0, 1, 2)
	m.Set(0, 2, 3)
	m.Set(1, 0, 4)
	m.Set(1, 1, 5)
	m.Set(1, 2, 6)

	v := []byte{1, 1, 1}
	out, err := m.MulVec(v)
	if err != nil {
		t.Fatal(err)
	}
	want0 := byte(1) ^ byte(2) ^ byte(3)
	want1 := byte(4) ^ byte(5) ^ byte(6)
	if out[0] != want0 || out[1] != want1 {
		t.Fatalf("got %v, want [%d %d]", out, want0, want1)
	}

	if _, err := m.MulVec([]byte{1, 2}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestDispatchNameReported(t *testing.T) {
	name := DispatchName()
	if name != "nibble-table" && name != "scalar" {
		t.Fatalf("unexpected dispatch name: %q", name)
	}
}
