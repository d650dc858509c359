package handshake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmilam360/relaysigner/internal/channel"
	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
)

// DefaultTimeout bounds a handshake in either direction.
const DefaultTimeout = 120 * time.Second

// Mode selects the handshake direction.
type Mode interface{ mode() }

// LocalInit solicits remote approval: the descriptor is handed to
// OnDescriptor for out-of-band transfer, then Run waits for the holder's
// connect request.
type LocalInit struct {
	Metadata     domain.AppMetadata
	Permissions  []string
	OnDescriptor func(descriptor string)
}

// RemoteInit consumes a variant B descriptor produced by the key holder.
type RemoteInit struct {
	Descriptor  string
	Permissions []string
}

func (LocalInit) mode()  {}
func (RemoteInit) mode() {}

// Negotiator runs one handshake to completion.
type Negotiator struct {
	relay   domain.RelayClient
	relays  []string
	timeout time.Duration
	log     zerolog.Logger
}

func New(relay domain.RelayClient, relays []string, timeout time.Duration, log zerolog.Logger) *Negotiator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Negotiator{relay: relay, relays: relays, timeout: timeout, log: log}
}

// Run drives the handshake for mode and returns the established session or a
// terminal failure (ErrInvalidDescriptor, ErrConnectionRejected,
// ErrConnectionTimeout, ErrTransportUnavailable).
func (n *Negotiator) Run(ctx context.Context, id domain.ClientIdentity, mode Mode) (domain.Session, error) {
	switch m := mode.(type) {
	case LocalInit:
		return n.runLocal(ctx, id, m)
	case RemoteInit:
		return n.runRemote(ctx, id, m)
	default:
		return domain.Session{}, fmt.Errorf("unknown handshake mode %T", mode)
	}
}

func (n *Negotiator) runLocal(ctx context.Context, id domain.ClientIdentity, m LocalInit) (domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	sub, err := n.relay.Subscribe(ctx, domain.Filter{Tag: id.Pub}, n.relays)
	if err != nil {
		return domain.Session{}, normalizeTransport(err)
	}
	defer sub.Close()

	desc := LocalDescriptor{
		ClientPub:   id.Pub,
		Relays:      n.relays,
		Metadata:    m.Metadata,
		Permissions: m.Permissions,
	}
	if m.OnDescriptor != nil {
		m.OnDescriptor(desc.String())
	}
	n.log.Info().Str("client", crypto.Fingerprint(id.Pub.Slice())).Msg("waiting for key holder approval")

	seen := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return domain.Session{}, timeoutErr(ctx)
		case env, ok := <-sub.Envelopes():
			if !ok {
				return domain.Session{}, domain.ErrTransportUnavailable
			}
			if _, dup := seen[env.ID]; dup {
				// env.ID is attacker-controlled; never assume its length.
				n.log.Debug().Str("envelope", env.ID[:min(16, len(env.ID))]).Msg("duplicate delivery ignored")
				continue
			}
			seen[env.ID] = struct{}{}
			if env.Sender == id.Pub {
				continue
			}

			// The sender is unknown until its envelope arrives, so a shared
			// secret is derived per candidate and tried exactly once.
			secret, err := crypto.DeriveSharedSecret(id.Priv, env.Sender)
			if err != nil {
				continue
			}
			raw, ok := channel.Unwrap(secret, env)
			if !ok {
				continue
			}
			var req domain.Request
			if err := json.Unmarshal(raw, &req); err != nil || req.Method != domain.MethodConnect {
				continue
			}

			n.log.Info().Str("holder", crypto.Fingerprint(env.Sender.Slice())).Msg("connection approved")
			return domain.Session{Client: id, Remote: env.Sender, Relays: n.relays}, nil
		}
	}
}

func (n *Negotiator) runRemote(ctx context.Context, id domain.ClientIdentity, m RemoteInit) (domain.Session, error) {
	desc, err := ParseRemoteDescriptor(m.Descriptor)
	if err != nil {
		return domain.Session{}, err
	}

	secret, err := crypto.DeriveSharedSecret(id.Priv, desc.RemotePub)
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", domain.ErrInvalidDescriptor, err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	sub, err := n.relay.Subscribe(ctx, domain.Filter{Tag: id.Pub}, desc.Relays)
	if err != nil {
		return domain.Session{}, normalizeTransport(err)
	}
	defer sub.Close()

	req := domain.Request{
		ID:     crypto.NewRequestID(),
		Method: domain.MethodConnect,
		Params: []string{id.Pub.Hex(), desc.Secret, strings.Join(m.Permissions, ",")},
	}
	env, err := channel.Wrap(id, desc.RemotePub, secret, req)
	if err != nil {
		return domain.Session{}, err
	}
	if err := n.relay.Publish(ctx, env, desc.Relays); err != nil {
		return domain.Session{}, normalizeTransport(err)
	}
	n.log.Info().Str("holder", crypto.Fingerprint(desc.RemotePub.Slice())).Msg("connect request sent")

	seen := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return domain.Session{}, timeoutErr(ctx)
		case env, ok := <-sub.Envelopes():
			if !ok {
				return domain.Session{}, domain.ErrTransportUnavailable
			}
			if _, dup := seen[env.ID]; dup {
				continue
			}
			seen[env.ID] = struct{}{}
			if env.Sender != desc.RemotePub {
				continue
			}
			raw, ok := channel.Unwrap(secret, env)
			if !ok {
				continue
			}
			var resp domain.Response
			if err := json.Unmarshal(raw, &resp); err != nil || resp.ID != req.ID {
				continue
			}
			if resp.Error != nil {
				return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrConnectionRejected, resp.Error.Message)
			}
			return domain.Session{Client: id, Remote: desc.RemotePub, Relays: desc.Relays}, nil
		}
	}
}

// timeoutErr maps a context deadline to the protocol timeout error but lets
// caller-initiated cancellation through untouched.
func timeoutErr(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.ErrConnectionTimeout
	}
	return ctx.Err()
}

// normalizeTransport keeps raw transport errors from leaking past the
// negotiator boundary.
func normalizeTransport(err error) error {
	if errors.Is(err, domain.ErrTransportUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrTransportUnavailable, err)
}
