package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
)

func makeIdentity(t *testing.T) domain.ClientIdentity {
	t.Helper()
	id, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	return id
}

func TestDeriveSharedSecretAgrees(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeIdentity(t)

	ab, err := crypto.DeriveSharedSecret(alice.Priv, bob.Pub)
	require.NoError(t, err)
	ba, err := crypto.DeriveSharedSecret(bob.Priv, alice.Pub)
	require.NoError(t, err)
	require.Equal(t, ab, ba, "both directions must derive the same key")

	carol := makeIdentity(t)
	ac, err := crypto.DeriveSharedSecret(alice.Priv, carol.Pub)
	require.NoError(t, err)
	require.NotEqual(t, ab, ac, "distinct peers must yield distinct keys")
}

func TestSealOpenRoundTrip(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeIdentity(t)
	secret, err := crypto.DeriveSharedSecret(alice.Priv, bob.Pub)
	require.NoError(t, err)

	ct, err := crypto.Seal(secret, []byte("dear diary"))
	require.NoError(t, err)

	pt, ok := crypto.Open(secret, ct)
	require.True(t, ok)
	require.Equal(t, []byte("dear diary"), pt)
}

func TestOpenRejectsForeignAndMalformed(t *testing.T) {
	alice := makeIdentity(t)
	bob := makeIdentity(t)
	carol := makeIdentity(t)

	secretAB, err := crypto.DeriveSharedSecret(alice.Priv, bob.Pub)
	require.NoError(t, err)
	secretAC, err := crypto.DeriveSharedSecret(alice.Priv, carol.Pub)
	require.NoError(t, err)

	ct, err := crypto.Seal(secretAB, []byte("not for carol"))
	require.NoError(t, err)

	for name, input := range map[string][]byte{
		"wrong key": ct,
		"empty":     nil,
		"short":     {0x01, 0x02},
		"garbage":   []byte("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"),
	} {
		key := secretAC
		_, ok := crypto.Open(key, input)
		require.False(t, ok, "%s must not decrypt", name)
	}

	// Tampering with a single byte breaks the AEAD tag.
	ct[len(ct)-1] ^= 0xff
	_, ok := crypto.Open(secretAB, ct)
	require.False(t, ok)
}

func TestSignVerify(t *testing.T) {
	id := makeIdentity(t)
	msg := []byte("payload")

	sig := crypto.Sign(id.Priv, msg)
	require.True(t, crypto.Verify(id.Pub, msg, sig))
	require.False(t, crypto.Verify(id.Pub, []byte("other"), sig))
}

func TestIdentityFromSeed(t *testing.T) {
	id := makeIdentity(t)
	rebuilt, err := crypto.IdentityFromSeed(id.Priv.Seed())
	require.NoError(t, err)
	require.Equal(t, id.Pub, rebuilt.Pub)
	require.Equal(t, id.Priv, rebuilt.Priv)
}

func TestEventSignAndVerify(t *testing.T) {
	holder := makeIdentity(t)
	ev := crypto.SignEvent(holder, domain.JournalEvent{
		CreatedAt: 1700000000,
		Kind:      domain.KindNote,
		Content:   "first entry",
	})
	require.Equal(t, holder.Pub.Hex(), ev.Pubkey)
	require.True(t, crypto.VerifyEvent(ev))

	tampered := ev
	tampered.Content = "forged entry"
	require.False(t, crypto.VerifyEvent(tampered))
}
