package channel

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
)

// Wrap seals a JSON-encodable payload under secret and builds the transport
// envelope addressed to the remote identity `to`. The envelope is signed by
// the sender so relays and peers can drop spoofed traffic cheaply.
func Wrap(from domain.ClientIdentity, to domain.PublicKey, secret domain.SharedSecret, payload any) (domain.Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("wrap payload: %w", err)
	}
	ct, err := crypto.Seal(secret, raw)
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("wrap payload: %w", err)
	}

	env := domain.Envelope{
		Sender:     from.Pub,
		Tag:        to,
		CreatedAt:  time.Now().Unix(),
		Ciphertext: base64.StdEncoding.EncodeToString(ct),
	}
	env.ID = EnvelopeID(env)
	digest, _ := hex.DecodeString(env.ID)
	env.Sig = hex.EncodeToString(crypto.Sign(from.Priv, digest))
	return env, nil
}

// Unwrap recovers the plaintext payload bytes from an inbound envelope. It
// returns ok=false when the envelope is unsigned, forged, malformed, or
// sealed under a different secret. Callers decode the bytes themselves.
func Unwrap(secret domain.SharedSecret, env domain.Envelope) ([]byte, bool) {
	if !verify(env) {
		return nil, false
	}
	ct, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, false
	}
	return crypto.Open(secret, ct)
}

// EnvelopeID computes the canonical digest identifying an envelope: the
// SHA-256 of the JSON array [sender, tag, created_at, ciphertext], hex
// encoded. Duplicate deliveries across relays share this id.
func EnvelopeID(env domain.Envelope) string {
	canonical, _ := json.Marshal([]any{env.Sender.Hex(), env.Tag.Hex(), env.CreatedAt, env.Ciphertext})
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

func verify(env domain.Envelope) bool {
	if env.ID != EnvelopeID(env) {
		return false
	}
	digest, err := hex.DecodeString(env.ID)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(env.Sig)
	if err != nil {
		return false
	}
	return crypto.Verify(env.Sender, digest, sig)
}
