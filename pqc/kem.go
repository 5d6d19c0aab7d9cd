// Package pqc wraps post-quantum key establishment and authentication
// primitives (spec.md §4.3): a lattice KEM for session-key agreement and
// a lattice signature for authenticating the hub's handshake response.
package pqc

import (
	"fmt"

	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber768"

	"github.com/duskwire/duskwire/wire"
)

// kemScheme is fixed at Kyber768 (NIST level 3 parameters).
var kemScheme = kyber768.Scheme()

// PublicKeySize, CiphertextSize and SharedKeySize are FIPS-parameter
// constants for Kyber768, read from the scheme rather than hardcoded.
var (
	PublicKeySize  = kemScheme.PublicKeySize()
	CiphertextSize = kemScheme.CiphertextSize()
	SharedKeySize  = kemScheme.SharedKeySize()
)

// ClientState holds the initiator's ephemeral KEM keypair between sending
// a ClientHello and receiving the hub's response. Mirrors ntor.go's
// HandshakeState in the teacher: ephemeral private material held across
// a round trip, dropped (see Close) on every exit path.
type ClientState struct {
	pub kem.PublicKey
	sk  kem.PrivateKey
}

// NewClientState generates a fresh Kyber768 keypair.
func NewClientState() (*ClientState, error) {
	pub, sk, err := kemScheme.GenerateKeyPair()
	if err != nil {
		return nil, wire.Errf(wire.KindRngFailure, "pqc.NewClientState", err)
	}
	return &ClientState{pub: pub, sk: sk}, nil
}

// PublicKeyBytes returns the wire form of the ephemeral public key, sent
// as the ClientHello payload.
func (c *ClientState) PublicKeyBytes() ([]byte, error) {
	b, err := c.pub.MarshalBinary()
	if err != nil {
		return nil, wire.Errf(wire.KindCryptoFailure, "pqc.PublicKeyBytes", err)
	}
	return b, nil
}

// Decapsulate consumes the hub's ciphertext and returns the shared secret,
// then drops the ephemeral private key via Close — it must not be reused.
func (c *ClientState) Decapsulate(ct []byte) (ss [32]byte, err error) {
	defer c.Close()
	raw, derr := kemScheme.Decapsulate(c.sk, ct)
	if derr != nil {
		return ss, wire.Errf(wire.KindCryptoFailure, "pqc.Decapsulate", derr)
	}
	if len(raw) != len(ss) {
		return ss, wire.Errf(wire.KindCryptoFailure, "pqc.Decapsulate",
			fmt.Errorf("unexpected shared secret size %d", len(raw)))
	}
	copy(ss[:], raw)
	return ss, nil
}

// Close zeroes whatever of the ephemeral private key can be zeroed. circl's
// PrivateKey has no exported Zero method, so this is a best-effort drop of
// the reference; callers must not retain c after Close.
func (c *ClientState) Close() {
	c.sk = nil
}

// UnmarshalPublicKey parses a peer-supplied Kyber768 public key (hub side,
// reading the ClientHello payload).
func UnmarshalPublicKey(b []byte) (kem.PublicKey, error) {
	pk, err := kemScheme.UnmarshalBinaryPublicKey(b)
	if err != nil {
		return nil, wire.Errf(wire.KindWireFormatError, "pqc.UnmarshalPublicKey", err)
	}
	return pk, nil
}

// Encapsulate runs the responder (hub) side: given the node's public key,
// produce a ciphertext and the derived shared secret.
func Encapsulate(pk kem.PublicKey) (ct []byte, ss [32]byte, err error) {
	rawCt, rawSS, eerr := kemScheme.Encapsulate(pk)
	if eerr != nil {
		return nil, ss, wire.Errf(wire.KindCryptoFailure, "pqc.Encapsulate", eerr)
	}
	if len(rawSS) != len(ss) {
		return nil, ss, wire.Errf(wire.KindCryptoFailure, "pqc.Encapsulate",
			fmt.Errorf("unexpected shared secret size %d", len(rawSS)))
	}
	copy(ss[:], rawSS)
	return rawCt, ss, nil
}
