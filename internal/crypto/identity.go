package crypto

import (
	"crypto/ed25519"
	"crypto/rand"

	"github.com/mmilam360/relaysigner/internal/domain"
)

// GenerateIdentity returns a fresh Ed25519 keypair for one signer session.
func GenerateIdentity() (domain.ClientIdentity, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return domain.ClientIdentity{}, err
	}
	var id domain.ClientIdentity
	copy(id.Pub[:], pub)
	copy(id.Priv[:], priv)
	return id, nil
}

// IdentityFromSeed rebuilds a keypair from a persisted 32-byte seed.
func IdentityFromSeed(seed []byte) (domain.ClientIdentity, error) {
	priv := ed25519.NewKeyFromSeed(seed)
	var id domain.ClientIdentity
	copy(id.Priv[:], priv)
	copy(id.Pub[:], priv.Public().(ed25519.PublicKey))
	return id, nil
}

// Sign signs msg with priv and returns the signature.
func Sign(priv domain.SecretKey, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv.Slice()), msg)
}

// Verify verifies sig over msg with pub.
func Verify(pub domain.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub.Slice()), msg, sig)
}
