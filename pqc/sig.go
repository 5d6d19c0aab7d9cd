package pqc

import (
	"github.com/cloudflare/circl/sign"
	"github.com/cloudflare/circl/sign/dilithium/mode3"

	"github.com/duskwire/duskwire/wire"
)

// sigScheme is fixed at Dilithium3 (NIST level 3 parameters), matching
// Kyber768's security level.
var sigScheme = mode3.Scheme()

// SignaturePublicKeySize and SignatureSize are FIPS-parameter constants.
var (
	SignaturePublicKeySize = sigScheme.PublicKeySize()
	SignatureSize          = sigScheme.SignatureSize()
)

// Signer holds a long-lived hub identity keypair used to authenticate
// HandshakeInit responses.
type Signer struct {
	pub sign.PublicKey
	sk  sign.PrivateKey
}

// GenerateSigner creates a fresh Dilithium3 identity keypair. In
// production this runs once at hub startup and the keypair persists
// across restarts; key persistence itself is an external-collaborator
// concern (spec.md §1).
func GenerateSigner() (*Signer, error) {
	pub, sk, err := sigScheme.GenerateKey()
	if err != nil {
		return nil, wire.Errf(wire.KindRngFailure, "pqc.GenerateSigner", err)
	}
	return &Signer{pub: pub, sk: sk}, nil
}

// PublicKeyBytes returns the wire form of the signer's public key.
func (s *Signer) PublicKeyBytes() ([]byte, error) {
	b, err := s.pub.MarshalBinary()
	if err != nil {
		return nil, wire.Errf(wire.KindCryptoFailure, "pqc.PublicKeyBytes", err)
	}
	return b, nil
}

// Sign produces a detached signature over msg (the KEM ciphertext, per
// spec.md §4.3 and §4.9's HandshakeInit construction).
func (s *Signer) Sign(msg []byte) []byte {
	return sigScheme.Sign(s.sk, msg, nil)
}

// Verifier holds a peer's known Dilithium3 public key (the node's
// pinned copy of the hub's identity).
type Verifier struct {
	pub sign.PublicKey
}

// NewVerifier parses a wire-form Dilithium3 public key.
func NewVerifier(b []byte) (*Verifier, error) {
	pub, err := sigScheme.UnmarshalBinaryPublicKey(b)
	if err != nil {
		return nil, wire.Errf(wire.KindWireFormatError, "pqc.NewVerifier", err)
	}
	return &Verifier{pub: pub}, nil
}

// Verify checks sig over msg. Returns KindAuthFail on mismatch.
func (v *Verifier) Verify(msg, sig []byte) error {
	if !sigScheme.Verify(v.pub, msg, sig, nil) {
		return wire.Errf(wire.KindAuthFail, "pqc.Verify", nil)
	}
	return nil
}
