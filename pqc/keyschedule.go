package pqc

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/duskwire/duskwire/wire"
)

// sessionKeyInfo is the HKDF-Expand info string binding the derived AEAD
// key to this protocol, the way ntor.go's mExpand label binds its own
// HKDF output to "ntor-curve25519-sha256-1:key_expand" rather than
// reusing the raw shared secret as a key directly.
const sessionKeyInfo = "duskwire-session-key-v1"

// DeriveSessionKey runs HKDF-SHA256 over the KEM shared secret to produce
// the AEAD session key, rather than using the raw shared secret verbatim
// (spec.md §4.3: "ss is a 32-byte shared secret fed into the AEAD").
func DeriveSessionKey(sharedSecret [32]byte) ([32]byte, error) {
	var key [32]byte
	kdf := hkdf.New(sha256.New, sharedSecret[:], nil, []byte(sessionKeyInfo))
	if _, err := io.ReadFull(kdf, key[:]); err != nil {
		return key, wire.Errf(wire.KindCryptoFailure, "pqc.DeriveSessionKey", err)
	}
	return key, nil
}
