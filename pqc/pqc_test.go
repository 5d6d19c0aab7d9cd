package pqc

import "testing"

func TestKEMRoundTrip(t *testing.T) {
	client, err := NewClientState()
	if err != nil {
		t.Fatal(err)
	}
	pubBytes, err := client.PublicKeyBytes()
	if err != nil {
		t.Fatal(err)
	}

	pk, err := UnmarshalPublicKey(pubBytes)
	if err != nil {
		t.Fatal(err)
	}

	ct, ssServer, err := Encapsulate(pk)
	if err != nil {
		t.Fatal(err)
	}

	ssClient, err := client.Decapsulate(ct)
	if err != nil {
		t.Fatal(err)
	}

	if ssClient != ssServer {
		t.Fatal("shared secrets do not match")
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	signer, err := GenerateSigner()
	if err != nil {
		t.Fatal(err)
	}
	pubBytes, err := signer.PublicKeyBytes()
	if err != nil {
		t.Fatal(err)
	}

	v, err := NewVerifier(pubBytes)
	if err != nil {
		t.Fatal(err)
	}

	msg := []byte("kem ciphertext goes here")
	sig := signer.Sign(msg)
	if err := v.Verify(msg, sig); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
}

func TestVerifyRejectsTamperedMessage(t *testing.T) {
	signer, _ := GenerateSigner()
	pubBytes, _ := signer.PublicKeyBytes()
	v, _ := NewVerifier(pubBytes)

	msg := []byte("original message")
	sig := signer.Sign(msg)

	tampered := append([]byte(nil), msg...)
	tampered[0] ^= 0xFF
	if err := v.Verify(tampered, sig); err == nil {
		t.Fatal("expected verify failure on tampered message")
	}
}

func TestSizesArePositive(t *testing.T) {
	if PublicKeySize <= 0 || CiphertextSize <= 0 || SharedKeySize != 32 {
		t.Fatalf("unexpected KEM sizes: pk=%d ct=%d ss=%d", PublicKeySize, CiphertextSize, SharedKeySize)
	}
	if SignaturePublicKeySize <= 0 || SignatureSize <= 0 {
		t.Fatalf("unexpected signature sizes: pk=%d sig=%d", SignaturePublicKeySize, SignatureSize)
	}
}
