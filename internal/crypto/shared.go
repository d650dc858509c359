package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"io"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	"github.com/mmilam360/relaysigner/internal/domain"
)

// hkdfInfo binds derived session keys to this protocol version.
const hkdfInfo = "relaysigner/session/v1"

// DeriveSharedSecret computes the symmetric session key between the local
// Ed25519 identity and a remote Ed25519 public key.
//
// Both keys are mapped to their X25519 forms (the private side by hashing and
// clamping the seed per RFC 8032, the public side via the birational map to
// Montgomery form), then run through X25519 and HKDF-SHA256. Both parties
// derive the same key regardless of direction.
func DeriveSharedSecret(priv domain.SecretKey, remote domain.PublicKey) (domain.SharedSecret, error) {
	var out domain.SharedSecret

	h := sha512.Sum512(priv.Seed())
	scalar := h[:curve25519.ScalarSize]
	scalar[0] &= 248
	scalar[31] &= 127
	scalar[31] |= 64

	p, err := new(edwards25519.Point).SetBytes(remote.Slice())
	if err != nil {
		return out, fmt.Errorf("derive shared secret: %w", err)
	}
	dh, err := curve25519.X25519(scalar, p.BytesMontgomery())
	if err != nil {
		return out, fmt.Errorf("derive shared secret: %w", err)
	}

	kdf := hkdf.New(sha256.New, dh, nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, out[:]); err != nil {
		return out, err
	}
	return out, nil
}
