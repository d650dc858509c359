package handshake_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mmilam360/relaysigner/internal/channel"
	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
	"github.com/mmilam360/relaysigner/internal/protocol/handshake"
	"github.com/mmilam360/relaysigner/internal/relay"
)

var relays = []string{"r1", "r2"}

func identity(t *testing.T) domain.ClientIdentity {
	t.Helper()
	id, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	return id
}

func TestLocalInitApprovedOnceDespiteDuplicates(t *testing.T) {
	net := relay.NewMemory()
	holder := identity(t)
	client := identity(t)
	n := handshake.New(net, relays, 5*time.Second, zerolog.Nop())

	descCh := make(chan string, 1)
	type outcome struct {
		sess domain.Session
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		sess, err := n.Run(context.Background(), client, handshake.LocalInit{
			Metadata:     domain.AppMetadata{Name: "journal"},
			Permissions:  []string{"sign"},
			OnDescriptor: func(d string) { descCh <- d },
		})
		done <- outcome{sess, err}
	}()

	// Holder receives the descriptor out of band and approves. Publishing on
	// both shared relays makes the approval arrive twice.
	desc, err := handshake.ParseLocalDescriptor(<-descCh)
	require.NoError(t, err)
	require.Equal(t, client.Pub, desc.ClientPub)
	require.Equal(t, []string{"sign"}, desc.Permissions)

	secret, err := crypto.DeriveSharedSecret(holder.Priv, desc.ClientPub)
	require.NoError(t, err)
	approval, err := channel.Wrap(holder, desc.ClientPub, secret, domain.Request{
		ID:     crypto.NewRequestID(),
		Method: domain.MethodConnect,
	})
	require.NoError(t, err)
	require.NoError(t, net.Publish(context.Background(), approval, desc.Relays))

	got := <-done
	require.NoError(t, got.err)
	require.Equal(t, holder.Pub, got.sess.Remote)
	require.Equal(t, client, got.sess.Client)
	require.Equal(t, relays, got.sess.Relays)
}

func TestLocalInitSurvivesShortIDDuplicates(t *testing.T) {
	net := relay.NewMemory()
	holder := identity(t)
	client := identity(t)
	n := handshake.New(net, relays, 5*time.Second, zerolog.Nop())

	descCh := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		_, err := n.Run(context.Background(), client, handshake.LocalInit{
			OnDescriptor: func(d string) { descCh <- d },
		})
		done <- err
	}()
	desc, err := handshake.ParseLocalDescriptor(<-descCh)
	require.NoError(t, err)

	// A hostile or buggy relay can hand back envelopes with arbitrary ids.
	// Both shared relays deliver this one, so the second copy lands on the
	// duplicate branch with an id far shorter than a digest.
	junk := domain.Envelope{ID: "abc", Sender: holder.Pub, Tag: client.Pub}
	require.NoError(t, net.Publish(context.Background(), junk, relays))

	secret, err := crypto.DeriveSharedSecret(holder.Priv, desc.ClientPub)
	require.NoError(t, err)
	approval, err := channel.Wrap(holder, desc.ClientPub, secret, domain.Request{
		ID:     crypto.NewRequestID(),
		Method: domain.MethodConnect,
	})
	require.NoError(t, err)
	require.NoError(t, net.Publish(context.Background(), approval, desc.Relays))

	require.NoError(t, <-done)
}

func TestLocalInitIgnoresGarbageAndTimesOut(t *testing.T) {
	net := relay.NewMemory()
	client := identity(t)
	stranger := identity(t)
	n := handshake.New(net, relays, 700*time.Millisecond, zerolog.Nop())

	go func() {
		// Envelope sealed under an unrelated secret: decrypts for nobody.
		wrong, _ := crypto.DeriveSharedSecret(stranger.Priv, stranger.Pub)
		env, _ := channel.Wrap(stranger, client.Pub, wrong, domain.Request{ID: "x", Method: domain.MethodConnect})
		time.Sleep(100 * time.Millisecond)
		_ = net.Publish(context.Background(), env, relays)
	}()

	_, err := n.Run(context.Background(), client, handshake.LocalInit{})
	require.ErrorIs(t, err, domain.ErrConnectionTimeout)
}

// runHolder answers the first connect request addressed to holder with resp.
func runHolder(t *testing.T, net *relay.Memory, holder domain.ClientIdentity, build func(req domain.Request) domain.Response) {
	t.Helper()
	sub, err := net.Subscribe(context.Background(), domain.Filter{Tag: holder.Pub}, relays)
	require.NoError(t, err)
	go func() {
		defer sub.Close()
		for env := range sub.Envelopes() {
			secret, err := crypto.DeriveSharedSecret(holder.Priv, env.Sender)
			if err != nil {
				continue
			}
			raw, ok := channel.Unwrap(secret, env)
			if !ok {
				continue
			}
			var req domain.Request
			if json.Unmarshal(raw, &req) != nil || req.Method != domain.MethodConnect {
				continue
			}
			reply, err := channel.Wrap(holder, env.Sender, secret, build(req))
			if err != nil {
				continue
			}
			_ = net.Publish(context.Background(), reply, relays)
			return
		}
	}()
}

func TestRemoteInitEstablishesSession(t *testing.T) {
	net := relay.NewMemory()
	holder := identity(t)
	client := identity(t)
	runHolder(t, net, holder, func(req domain.Request) domain.Response {
		return domain.Response{ID: req.ID, Result: json.RawMessage(`"ack"`)}
	})

	desc := handshake.RemoteDescriptor{RemotePub: holder.Pub, Relays: relays}
	n := handshake.New(net, relays, 5*time.Second, zerolog.Nop())
	sess, err := n.Run(context.Background(), client, handshake.RemoteInit{
		Descriptor:  desc.String(),
		Permissions: []string{"sign", "encrypt", "decrypt"},
	})
	require.NoError(t, err)
	require.Equal(t, holder.Pub, sess.Remote)
	require.Equal(t, relays, sess.Relays)
}

func TestRemoteInitRejected(t *testing.T) {
	net := relay.NewMemory()
	holder := identity(t)
	client := identity(t)
	runHolder(t, net, holder, func(req domain.Request) domain.Response {
		return domain.Response{ID: req.ID, Error: &domain.ResponseError{Message: "declined"}}
	})

	desc := handshake.RemoteDescriptor{RemotePub: holder.Pub, Relays: relays}
	n := handshake.New(net, relays, 5*time.Second, zerolog.Nop())
	_, err := n.Run(context.Background(), client, handshake.RemoteInit{Descriptor: desc.String()})
	require.ErrorIs(t, err, domain.ErrConnectionRejected)
	require.Contains(t, err.Error(), "declined")
}

func TestRemoteInitTimesOutWithoutResponse(t *testing.T) {
	net := relay.NewMemory()
	holder := identity(t)
	client := identity(t)

	desc := handshake.RemoteDescriptor{RemotePub: holder.Pub, Relays: relays}
	n := handshake.New(net, relays, 500*time.Millisecond, zerolog.Nop())
	_, err := n.Run(context.Background(), client, handshake.RemoteInit{Descriptor: desc.String()})
	require.ErrorIs(t, err, domain.ErrConnectionTimeout)
}

func TestRemoteInitMalformedDescriptorFailsFast(t *testing.T) {
	n := handshake.New(relay.NewMemory(), relays, 5*time.Second, zerolog.Nop())
	start := time.Now()
	_, err := n.Run(context.Background(), identity(t), handshake.RemoteInit{Descriptor: "not a descriptor"})
	require.ErrorIs(t, err, domain.ErrInvalidDescriptor)
	require.Less(t, time.Since(start), time.Second)
}
