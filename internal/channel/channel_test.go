package channel_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mmilam360/relaysigner/internal/channel"
	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
)

func pair(t *testing.T) (domain.ClientIdentity, domain.ClientIdentity, domain.SharedSecret) {
	t.Helper()
	client, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	holder, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	secret, err := crypto.DeriveSharedSecret(client.Priv, holder.Pub)
	require.NoError(t, err)
	return client, holder, secret
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	client, holder, secret := pair(t)

	req := domain.Request{ID: "r1", Method: domain.MethodSign, Params: []string{"{}"}}
	env, err := channel.Wrap(client, holder.Pub, secret, req)
	require.NoError(t, err)
	require.Equal(t, client.Pub, env.Sender)
	require.Equal(t, holder.Pub, env.Tag)
	require.Equal(t, channel.EnvelopeID(env), env.ID)

	// Holder side derives the same secret from its own key and unwraps.
	holderSecret, err := crypto.DeriveSharedSecret(holder.Priv, client.Pub)
	require.NoError(t, err)
	raw, ok := channel.Unwrap(holderSecret, env)
	require.True(t, ok)

	var got domain.Request
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, req, got)
}

func TestUnwrapSkipsForeignTraffic(t *testing.T) {
	client, holder, secret := pair(t)

	env, err := channel.Wrap(client, holder.Pub, secret, domain.Request{ID: "r1", Method: domain.MethodConnect})
	require.NoError(t, err)

	stranger, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	foreign, err := crypto.DeriveSharedSecret(stranger.Priv, client.Pub)
	require.NoError(t, err)

	_, ok := channel.Unwrap(foreign, env)
	require.False(t, ok, "a different shared secret must not decrypt")
}

func TestUnwrapRejectsTampering(t *testing.T) {
	client, holder, secret := pair(t)

	env, err := channel.Wrap(client, holder.Pub, secret, domain.Request{ID: "r1", Method: domain.MethodConnect})
	require.NoError(t, err)

	forgedCiphertext := env
	forgedCiphertext.Ciphertext = "AAAA" + forgedCiphertext.Ciphertext[4:]
	_, ok := channel.Unwrap(secret, forgedCiphertext)
	require.False(t, ok, "id no longer matches contents")

	forgedSender := env
	stranger, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	forgedSender.Sender = stranger.Pub
	_, ok = channel.Unwrap(secret, forgedSender)
	require.False(t, ok, "signature must bind the sender")

	unsigned := env
	unsigned.Sig = ""
	_, ok = channel.Unwrap(secret, unsigned)
	require.False(t, ok)
}
