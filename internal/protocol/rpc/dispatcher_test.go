package rpc_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mmilam360/relaysigner/internal/channel"
	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
	"github.com/mmilam360/relaysigner/internal/protocol/rpc"
	"github.com/mmilam360/relaysigner/internal/relay"
)

var relays = []string{"r1"}

type fixture struct {
	net     *relay.Memory
	holder  domain.ClientIdentity
	session domain.Session
	secret  domain.SharedSecret
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	holder, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	secret, err := crypto.DeriveSharedSecret(holder.Priv, client.Pub)
	require.NoError(t, err)
	return &fixture{
		net:     relay.NewMemory(),
		holder:  holder,
		session: domain.Session{Client: client, Remote: holder.Pub, Relays: relays},
		secret:  secret,
	}
}

// respond starts a holder-side loop; handle returns nil to swallow a request.
func (f *fixture) respond(t *testing.T, handle func(req domain.Request) *domain.Response) {
	t.Helper()
	sub, err := f.net.Subscribe(context.Background(), domain.Filter{Tag: f.holder.Pub}, relays)
	require.NoError(t, err)
	t.Cleanup(sub.Close)
	go func() {
		for env := range sub.Envelopes() {
			raw, ok := channel.Unwrap(f.secret, env)
			if !ok {
				continue
			}
			var req domain.Request
			if json.Unmarshal(raw, &req) != nil {
				continue
			}
			resp := handle(req)
			if resp == nil {
				continue
			}
			reply, err := channel.Wrap(f.holder, env.Sender, f.secret, *resp)
			if err != nil {
				continue
			}
			_ = f.net.Publish(context.Background(), reply, relays)
		}
	}()
}

func result(s string) *domain.Response {
	return &domain.Response{Result: json.RawMessage(fmt.Sprintf("%q", s))}
}

func TestCallRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.respond(t, func(req domain.Request) *domain.Response {
		r := result("pong:" + req.Params[0])
		r.ID = req.ID
		return r
	})

	d, err := rpc.New(f.net, f.session, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	raw, err := d.Call(context.Background(), domain.MethodGetIdentity, []string{"a"})
	require.NoError(t, err)
	var got string
	require.NoError(t, json.Unmarshal(raw, &got))
	require.Equal(t, "pong:a", got)
}

func TestConcurrentCallsResolveByIDNotArrivalOrder(t *testing.T) {
	f := newFixture(t)

	// Hold both requests, then answer them in reverse arrival order.
	var mu sync.Mutex
	var held []domain.Request
	release := make(chan struct{})
	f.respond(t, func(req domain.Request) *domain.Response {
		mu.Lock()
		held = append(held, req)
		n := len(held)
		mu.Unlock()
		if n == 2 {
			close(release)
		}
		return nil
	})

	d, err := rpc.New(f.net, f.session, 10*time.Second, zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	type res struct {
		got string
		err error
	}
	call := func(arg string) chan res {
		out := make(chan res, 1)
		go func() {
			raw, err := d.Call(context.Background(), domain.MethodSign, []string{arg})
			var s string
			if err == nil {
				err = json.Unmarshal(raw, &s)
			}
			out <- res{s, err}
		}()
		return out
	}
	outA := call("a")
	outB := call("b")

	select {
	case <-release:
	case <-time.After(5 * time.Second):
		t.Fatal("requests never arrived")
	}
	mu.Lock()
	reqs := append([]domain.Request(nil), held...)
	mu.Unlock()
	for i := len(reqs) - 1; i >= 0; i-- {
		resp := domain.Response{ID: reqs[i].ID, Result: json.RawMessage(fmt.Sprintf("%q", "signed:"+reqs[i].Params[0]))}
		reply, err := channel.Wrap(f.holder, f.session.Client.Pub, f.secret, resp)
		require.NoError(t, err)
		require.NoError(t, f.net.Publish(context.Background(), reply, relays))
	}

	a := <-outA
	b := <-outB
	require.NoError(t, a.err)
	require.NoError(t, b.err)
	require.Equal(t, "signed:a", a.got)
	require.Equal(t, "signed:b", b.got)
}

func TestCallTimesOutWithoutResponse(t *testing.T) {
	f := newFixture(t)
	d, err := rpc.New(f.net, f.session, 300*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	start := time.Now()
	_, err = d.Call(context.Background(), domain.MethodSign, nil)
	require.ErrorIs(t, err, domain.ErrConnectionTimeout)
	require.Less(t, time.Since(start), 2*time.Second, "timeout must fire, not hang")
}

func TestGarbageNeverSettlesACall(t *testing.T) {
	f := newFixture(t)

	var captured domain.Request
	got := make(chan struct{})
	f.respond(t, func(req domain.Request) *domain.Response {
		captured = req
		close(got)
		return nil
	})

	d, err := rpc.New(f.net, f.session, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	done := make(chan error, 1)
	go func() {
		_, err := d.Call(context.Background(), domain.MethodSign, nil)
		done <- err
	}()
	<-got

	// A volley of junk addressed to the client: undecryptable noise, a
	// decryptable response for an unknown id, and a decryptable non-response.
	stranger, err := crypto.GenerateIdentity()
	require.NoError(t, err)
	wrongSecret, err := crypto.DeriveSharedSecret(stranger.Priv, stranger.Pub)
	require.NoError(t, err)
	noise, err := channel.Wrap(stranger, f.session.Client.Pub, wrongSecret, domain.Response{ID: captured.ID})
	require.NoError(t, err)
	unknown, err := channel.Wrap(f.holder, f.session.Client.Pub, f.secret, domain.Response{ID: "never-issued"})
	require.NoError(t, err)
	junk, err := channel.Wrap(f.holder, f.session.Client.Pub, f.secret, map[string]int{"v": 1})
	require.NoError(t, err)
	for _, env := range []domain.Envelope{noise, unknown, junk} {
		require.NoError(t, f.net.Publish(context.Background(), env, relays))
	}

	select {
	case err := <-done:
		t.Fatalf("call settled by garbage: %v", err)
	case <-time.After(300 * time.Millisecond):
	}

	// The genuine response still lands.
	reply, err := channel.Wrap(f.holder, f.session.Client.Pub, f.secret,
		domain.Response{ID: captured.ID, Result: json.RawMessage(`"ok"`)})
	require.NoError(t, err)
	require.NoError(t, f.net.Publish(context.Background(), reply, relays))
	require.NoError(t, <-done)
}

func TestLateResponseAfterTimeoutIsDiscarded(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var first domain.Request
	f.respond(t, func(req domain.Request) *domain.Response {
		mu.Lock()
		if first.ID == "" {
			first = req
			mu.Unlock()
			return nil // let the first call time out
		}
		mu.Unlock()
		return &domain.Response{ID: req.ID, Result: json.RawMessage(`"second"`)}
	})

	d, err := rpc.New(f.net, f.session, 200*time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Call(context.Background(), domain.MethodSign, nil)
	require.ErrorIs(t, err, domain.ErrConnectionTimeout)

	// Deliver the answer to the already-settled call, then make another call.
	mu.Lock()
	stale := first
	mu.Unlock()
	late, err := channel.Wrap(f.holder, f.session.Client.Pub, f.secret,
		domain.Response{ID: stale.ID, Result: json.RawMessage(`"too late"`)})
	require.NoError(t, err)
	require.NoError(t, f.net.Publish(context.Background(), late, relays))

	raw, err := d.Call(context.Background(), domain.MethodSign, nil)
	require.NoError(t, err)
	require.Equal(t, json.RawMessage(`"second"`), raw)
}

func TestRemoteErrorSurfacesAsRejection(t *testing.T) {
	f := newFixture(t)
	f.respond(t, func(req domain.Request) *domain.Response {
		return &domain.Response{ID: req.ID, Error: &domain.ResponseError{Message: "declined"}}
	})

	d, err := rpc.New(f.net, f.session, 5*time.Second, zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Call(context.Background(), domain.MethodSign, nil)
	require.ErrorIs(t, err, domain.ErrConnectionRejected)
	require.Contains(t, err.Error(), "declined")
}

func TestCloseFailsInFlightAndFutureCalls(t *testing.T) {
	f := newFixture(t)
	d, err := rpc.New(f.net, f.session, 30*time.Second, zerolog.Nop())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := d.Call(context.Background(), domain.MethodSign, nil)
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	d.Close()

	require.ErrorIs(t, <-done, rpc.ErrClosed)
	_, err = d.Call(context.Background(), domain.MethodSign, nil)
	require.ErrorIs(t, err, rpc.ErrClosed)
}
