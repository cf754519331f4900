// Package attest implements the Ed25519 attestation scheme shared by the
// proof-verification relay (signer) and the compliance registry (verifier).
// The signed message is the raw bytes of the canonical account identifier,
// i.e. after domain.CanonicalAccountID has stripped any network-version
// prefix. Both sides use Message so the transform cannot drift.
package attest

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// Message returns the byte message the attestor signs for an account.
func Message(canonicalAccountID string) []byte {
	return []byte(canonicalAccountID)
}

// Verifier checks attestor signatures against the registry-wide public key
// fixed at initialization. Pure and safe for concurrent use.
type Verifier struct {
	key ed25519.PublicKey
}

// NewVerifier parses a 32-byte hex-encoded Ed25519 public key.
func NewVerifier(publicKeyHex string) (*Verifier, error) {
	key, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("attestor public key is not valid hex")
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("attestor public key must be %d bytes, got %d", ed25519.PublicKeySize, len(key))
	}
	return &Verifier{key: ed25519.PublicKey(key)}, nil
}

// Verify reports whether signature is a valid attestor signature over the
// canonical account identifier. Fails closed: malformed signature lengths
// and value mismatches both return false, never panic.
func (v *Verifier) Verify(canonicalAccountID string, signature []byte) bool {
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(v.key, Message(canonicalAccountID), signature)
}

// Signer holds the attestor's private key. Used only by the relay after a
// successful third-party proof verification.
type Signer struct {
	key ed25519.PrivateKey
}

// NewSigner derives a signer from a 32-byte hex-encoded seed.
func NewSigner(seedHex string) (*Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("attestor seed is not valid hex")
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("attestor seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Signer{key: ed25519.NewKeyFromSeed(seed)}, nil
}

// Sign produces the 64-byte attestation signature for an account.
func (s *Signer) Sign(canonicalAccountID string) []byte {
	return ed25519.Sign(s.key, Message(canonicalAccountID))
}

// PublicKeyHex returns the hex encoding of the verifying key, for
// distribution to registries.
func (s *Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.key.Public().(ed25519.PublicKey))
}
