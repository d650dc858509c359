package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/mmilam360/relaysigner/internal/domain"
)

// EventID returns the canonical digest of a journal event: the SHA-256 of
// the JSON array [0, pubkey, created_at, kind, content], hex encoded. The
// leading 0 is a format version marker.
func EventID(ev domain.JournalEvent) string {
	canonical, _ := json.Marshal([]any{0, ev.Pubkey, ev.CreatedAt, ev.Kind, ev.Content})
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// SignEvent fills in Pubkey, ID and Sig on ev using the holder identity.
func SignEvent(id domain.ClientIdentity, ev domain.JournalEvent) domain.JournalEvent {
	ev.Pubkey = id.Pub.Hex()
	ev.ID = EventID(ev)
	digest, _ := hex.DecodeString(ev.ID)
	ev.Sig = hex.EncodeToString(Sign(id.Priv, digest))
	return ev
}

// VerifyEvent checks that ev's ID matches its contents and that Sig is a
// valid signature over the ID by ev.Pubkey.
func VerifyEvent(ev domain.JournalEvent) bool {
	pub, err := domain.ParsePublicKey(ev.Pubkey)
	if err != nil {
		return false
	}
	if EventID(ev) != ev.ID {
		return false
	}
	digest, err := hex.DecodeString(ev.ID)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(ev.Sig)
	if err != nil {
		return false
	}
	return Verify(pub, digest, sig)
}
