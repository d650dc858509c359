package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/mmilam360/relaysigner/internal/domain"
)

// Seal encrypts plaintext under the session secret. The random nonce is
// prepended to the returned ciphertext.
func Seal(secret domain.SharedSecret, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(secret.Slice())
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open decrypts a Seal output. It reports ok=false for any input that is
// malformed or not sealed under secret; it never errors or panics, so
// callers can treat foreign traffic as an ignorable non-event.
func Open(secret domain.SharedSecret, ciphertext []byte) ([]byte, bool) {
	if len(ciphertext) <= chacha20poly1305.NonceSize {
		return nil, false
	}
	aead, err := chacha20poly1305.New(secret.Slice())
	if err != nil {
		return nil, false
	}
	nonce, ct := ciphertext[:chacha20poly1305.NonceSize], ciphertext[chacha20poly1305.NonceSize:]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, false
	}
	return pt, true
}
