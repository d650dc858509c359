package domain

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// PublicKey is a 32-byte Ed25519 public key. Its lowercase hex form is the
// party's public identity string on the wire.
type PublicKey [32]byte

func (p PublicKey) Slice() []byte { return p[:] }

// Hex returns the canonical wire form of the key.
func (p PublicKey) Hex() string { return hex.EncodeToString(p[:]) }

// IsZero reports whether the key is unset.
func (p PublicKey) IsZero() bool { return p == PublicKey{} }

// MarshalText encodes the key as lowercase hex for JSON and URIs.
func (p PublicKey) MarshalText() ([]byte, error) {
	return []byte(p.Hex()), nil
}

// UnmarshalText mirrors MarshalText.
func (p *PublicKey) UnmarshalText(b []byte) error {
	k, err := ParsePublicKey(string(b))
	if err != nil {
		return err
	}
	*p = k
	return nil
}

// ParsePublicKey decodes a 64-char hex identity string.
func ParsePublicKey(s string) (PublicKey, error) {
	var p PublicKey
	raw, err := hex.DecodeString(s)
	if err != nil {
		return p, fmt.Errorf("public key: %w", err)
	}
	if len(raw) != len(p) {
		return p, errors.New("public key: wrong length")
	}
	copy(p[:], raw)
	return p, nil
}

// SecretKey is an Ed25519 private key (seed || public, 64 bytes).
type SecretKey [64]byte

func (k SecretKey) Slice() []byte { return k[:] }

// Seed returns the 32-byte seed half of the key.
func (k SecretKey) Seed() []byte { return k[:32] }

// SharedSecret is a symmetric session key derived from an ECDH exchange.
type SharedSecret [32]byte

func (s SharedSecret) Slice() []byte { return s[:] }

// ClientIdentity is the local keypair owned by one signer session. The secret
// never leaves the process and is wiped on disconnect.
type ClientIdentity struct {
	Pub  PublicKey
	Priv SecretKey
}
