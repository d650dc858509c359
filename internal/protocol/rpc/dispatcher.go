package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmilam360/relaysigner/internal/channel"
	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
)

// DefaultCallTimeout bounds one request/response round trip.
const DefaultCallTimeout = 60 * time.Second

// ErrClosed is returned for calls made after the dispatcher shut down.
var ErrClosed = errors.New("dispatcher closed")

// pending is one in-flight correlation. The channel is buffered so the read
// loop never blocks handing over a result.
type pending struct {
	ch chan domain.Response
}

// Dispatcher owns the subscription of one established session and settles
// pending calls as responses arrive.
type Dispatcher struct {
	session domain.Session
	secret  domain.SharedSecret
	relay   domain.RelayClient
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	pending map[string]pending
	closed  bool

	sub    domain.Subscription
	cancel context.CancelFunc
	done   chan struct{}
}

// New derives the session secret, subscribes on the client identity, and
// starts the read loop.
func New(relayClient domain.RelayClient, sess domain.Session, timeout time.Duration, log zerolog.Logger) (*Dispatcher, error) {
	secret, err := crypto.DeriveSharedSecret(sess.Client.Priv, sess.Remote)
	if err != nil {
		return nil, fmt.Errorf("dispatcher: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := relayClient.Subscribe(ctx, domain.Filter{Tag: sess.Client.Pub}, sess.Relays)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("dispatcher: %w", domain.ErrTransportUnavailable)
	}

	d := &Dispatcher{
		session: sess,
		secret:  secret,
		relay:   relayClient,
		timeout: timeout,
		log:     log,
		pending: make(map[string]pending),
		sub:     sub,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go d.readLoop()
	return d, nil
}

// Call performs one correlated round trip and returns the raw result.
func (d *Dispatcher) Call(ctx context.Context, method string, params []string) (json.RawMessage, error) {
	req := domain.Request{ID: crypto.NewRequestID(), Method: method, Params: params}

	p := pending{ch: make(chan domain.Response, 1)}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	d.pending[req.ID] = p
	d.mu.Unlock()
	defer d.unregister(req.ID)

	env, err := channel.Wrap(d.session.Client, d.session.Remote, d.secret, req)
	if err != nil {
		return nil, err
	}
	if err := d.relay.Publish(ctx, env, d.session.Relays); err != nil {
		if errors.Is(err, domain.ErrTransportUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrTransportUnavailable, err)
	}
	d.log.Debug().Str("method", method).Str("request", req.ID[:8]).Msg("request published")

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()
	select {
	case resp := <-p.ch:
		if resp.Error != nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrConnectionRejected, resp.Error.Message)
		}
		return resp.Result, nil
	case <-timer.C:
		return nil, domain.ErrConnectionTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		return nil, ErrClosed
	}
}

// Close tears the dispatcher down: the subscription is released, the read
// loop stops, and every in-flight call fails with ErrClosed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.pending = make(map[string]pending)
	d.mu.Unlock()

	close(d.done)
	d.cancel()
	d.sub.Close()
}

func (d *Dispatcher) readLoop() {
	for env := range d.sub.Envelopes() {
		if env.Sender != d.session.Remote {
			continue
		}
		raw, ok := channel.Unwrap(d.secret, env)
		if !ok {
			continue
		}
		var resp domain.Response
		if err := json.Unmarshal(raw, &resp); err != nil || resp.ID == "" {
			continue
		}
		d.settle(resp)
	}
}

// settle resolves the matching pending call, if any. Removing the entry
// under the lock before delivery guarantees a call settles at most once;
// late or duplicate responses find nothing and are dropped here.
func (d *Dispatcher) settle(resp domain.Response) {
	d.mu.Lock()
	p, ok := d.pending[resp.ID]
	if ok {
		delete(d.pending, resp.ID)
	}
	d.mu.Unlock()
	if !ok {
		d.log.Debug().Str("request", resp.ID[:min(8, len(resp.ID))]).Msg("response for unknown or settled id discarded")
		return
	}
	p.ch <- resp
}

func (d *Dispatcher) unregister(id string) {
	d.mu.Lock()
	delete(d.pending, id)
	d.mu.Unlock()
}
