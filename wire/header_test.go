package wire

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Version:    Version,
		Type:       TypeCoded,
		GenID:      7,
		SymbolID:   1000000,
		PayloadLen: 1024,
		Rank:       3,
		Reserved:   17,
	}
	h.Tag = [TagLen]byte{1, 2, 3, 4}

	b := h.Encode()
	got, err := Decode(b[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != h {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, h)
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	h := Header{Type: TypeData}
	b := h.Encode()
	b[0] ^= 0xFF
	if _, err := Decode(b[:]); err == nil {
		t.Fatal("expected error on bad magic")
	} else if KindOf(err) != KindWireFormatError {
		t.Fatalf("expected KindWireFormatError, got %v", KindOf(err))
	}
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	h := Header{Type: TypeData}
	b := h.Encode()
	b[5] = 0x42
	if _, err := Decode(b[:]); err == nil {
		t.Fatal("expected error on unknown type")
	}
}

func TestDecodeRejectsShortHeader(t *testing.T) {
	if _, err := Decode(make([]byte, 10)); err == nil {
		t.Fatal("expected error on short header")
	}
}

func TestAADZeroesTag(t *testing.T) {
	h := Header{Type: TypeData}
	h.Tag = [TagLen]byte{9, 9, 9}
	aad := h.AADBytes()
	for i := 16; i < 32; i++ {
		if aad[i] != 0 {
			t.Fatalf("AAD byte %d not zeroed: %d", i, aad[i])
		}
	}
}

func TestIsKnown(t *testing.T) {
	known := []Type{TypeData, TypeAck, TypeHandshake, TypeKeepAlive, TypeCoded, TypeClientHello, TypeHandshakeInit, TypeHandshakeAuth}
	for _, ty := range known {
		if !ty.IsKnown() {
			t.Fatalf("type 0x%02x should be known", ty)
		}
	}
	if Type(0x42).IsKnown() {
		t.Fatal("0x42 should not be known")
	}
}
