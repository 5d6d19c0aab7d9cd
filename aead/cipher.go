// Package aead implements the header-AAD authenticated symmetric
// encryption duskwire uses for every data-plane and handshake datagram
// (spec.md §4.2): ChaCha20-Poly1305 with a nonce constructed from the
// generation and symbol id rather than drawn at random.
package aead

import (
	"crypto/cipher"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/duskwire/duskwire/wire"
)

// Cipher holds one session's symmetric key. A Cipher is created once per
// handshake and replaced wholesale on re-key — never mutated in place,
// since nonce uniqueness is only promised within a single key
// (spec.md §4.2 invariant).
type Cipher struct {
	aead cipher.AEAD
}

// New builds a Cipher from a 32-byte key (the KEM shared secret, or a
// key derived from it via HKDF).
func New(key [32]byte) (*Cipher, error) {
	a, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, wire.Errf(wire.KindCryptoFailure, "aead.New", err)
	}
	return &Cipher{aead: a}, nil
}

// nonce builds the deterministic 96-bit nonce: bytes 0..2 = gen id (BE),
// bytes 2..6 = symbol id (BE), bytes 6..12 = zero (spec.md §4.2).
func nonce(genID uint16, symbolID uint32) [chacha20poly1305.NonceSize]byte {
	var n [chacha20poly1305.NonceSize]byte
	n[0] = byte(genID >> 8)
	n[1] = byte(genID)
	n[2] = byte(symbolID >> 24)
	n[3] = byte(symbolID >> 16)
	n[4] = byte(symbolID >> 8)
	n[5] = byte(symbolID)
	return n
}

// EncryptDetached seals payload in place against the header's AAD bytes
// (tag field zeroed) and returns the 16-byte tag. The caller copies the
// tag into the header before transmission (spec.md §4.2 contract).
func (c *Cipher) EncryptDetached(h *wire.Header, payload []byte) ([wire.TagLen]byte, error) {
	n := nonce(h.GenID, h.SymbolID)
	aad := h.AADBytes()
	sealed := c.aead.Seal(nil, n[:], payload, aad[:])
	copy(payload, sealed[:len(payload)])
	var tag [wire.TagLen]byte
	copy(tag[:], sealed[len(payload):])
	return tag, nil
}

// DecryptDetached verifies and decrypts payload in place using the tag
// already present in h. Fails with KindAuthFail if either the AAD or the
// ciphertext was modified (spec.md §4.2).
func (c *Cipher) DecryptDetached(h *wire.Header, payload []byte) error {
	n := nonce(h.GenID, h.SymbolID)
	aad := h.AADBytes()
	sealedWithTag := make([]byte, len(payload)+wire.TagLen)
	copy(sealedWithTag, payload)
	copy(sealedWithTag[len(payload):], h.Tag[:])
	opened, err := c.aead.Open(nil, n[:], sealedWithTag, aad[:])
	if err != nil {
		return wire.Errf(wire.KindAuthFail, "aead.DecryptDetached", err)
	}
	copy(payload, opened)
	return nil
}
