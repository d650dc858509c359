package holder

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mmilam360/relaysigner/internal/channel"
	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
	"github.com/mmilam360/relaysigner/internal/protocol/handshake"
)

// Approver decides whether a client may connect. Returning an error declines
// the connection with that reason.
type Approver func(client domain.PublicKey, permissions []string) error

// Config carries the holder's relay set and optional pre-shared connect
// secret. When Secret is set, connect requests must echo it.
type Config struct {
	Relays []string
	Secret string
}

// Service is one key holder instance.
type Service struct {
	id      domain.ClientIdentity
	cfg     Config
	relay   domain.RelayClient
	approve Approver
	log     zerolog.Logger

	mu   sync.Mutex
	seen *dedupe
}

func New(id domain.ClientIdentity, relayClient domain.RelayClient, cfg Config, log zerolog.Logger) *Service {
	return &Service{
		id:      id,
		cfg:     cfg,
		relay:   relayClient,
		approve: func(domain.PublicKey, []string) error { return nil },
		log:     log,
		seen:    newDedupe(dedupeWindow),
	}
}

// SetApprover replaces the connect policy. Call before Run.
func (h *Service) SetApprover(fn Approver) { h.approve = fn }

// Identity returns the holder's public identity.
func (h *Service) Identity() domain.PublicKey { return h.id.Pub }

// Descriptor returns the variant B URI a client needs for a
// remotely-initiated connection.
func (h *Service) Descriptor() string {
	return handshake.RemoteDescriptor{
		RemotePub: h.id.Pub,
		Relays:    h.cfg.Relays,
		Secret:    h.cfg.Secret,
	}.String()
}

// Run serves requests addressed to the holder identity until ctx is done.
func (h *Service) Run(ctx context.Context) error {
	sub, err := h.relay.Subscribe(ctx, domain.Filter{Tag: h.id.Pub}, h.cfg.Relays)
	if err != nil {
		return fmt.Errorf("holder subscribe: %w", err)
	}
	defer sub.Close()

	h.log.Info().Str("holder", crypto.Fingerprint(h.id.Pub.Slice())).Msg("key holder serving")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-sub.Envelopes():
			if !ok {
				return errors.New("holder subscription closed")
			}
			h.handle(ctx, env)
		}
	}
}

// ApproveLocal consumes a variant A descriptor advertised by a client and
// sends the approving connect request over the descriptor's relay set.
func (h *Service) ApproveLocal(ctx context.Context, descriptor string) error {
	desc, err := handshake.ParseLocalDescriptor(descriptor)
	if err != nil {
		return err
	}
	if err := h.approve(desc.ClientPub, desc.Permissions); err != nil {
		return fmt.Errorf("connection not approved: %w", err)
	}

	secret, err := crypto.DeriveSharedSecret(h.id.Priv, desc.ClientPub)
	if err != nil {
		return err
	}
	env, err := channel.Wrap(h.id, desc.ClientPub, secret, domain.Request{
		ID:     crypto.NewRequestID(),
		Method: domain.MethodConnect,
	})
	if err != nil {
		return err
	}
	if err := h.relay.Publish(ctx, env, desc.Relays); err != nil {
		return err
	}
	h.log.Info().Str("client", crypto.Fingerprint(desc.ClientPub.Slice())).Msg("approved local-init connection")
	return nil
}

func (h *Service) handle(ctx context.Context, env domain.Envelope) {
	h.mu.Lock()
	dup := h.seen.Remember(env.ID)
	h.mu.Unlock()
	if dup {
		return
	}

	secret, err := crypto.DeriveSharedSecret(h.id.Priv, env.Sender)
	if err != nil {
		return
	}
	raw, ok := channel.Unwrap(secret, env)
	if !ok {
		return
	}
	var req domain.Request
	if err := json.Unmarshal(raw, &req); err != nil || req.ID == "" || req.Method == "" {
		return
	}

	resp := h.dispatch(env.Sender, req)
	reply, err := channel.Wrap(h.id, env.Sender, secret, resp)
	if err != nil {
		return
	}
	if err := h.relay.Publish(ctx, reply, h.cfg.Relays); err != nil {
		h.log.Warn().Err(err).Msg("reply publish failed")
	}
}

func (h *Service) dispatch(client domain.PublicKey, req domain.Request) domain.Response {
	fail := func(msg string) domain.Response {
		return domain.Response{ID: req.ID, Error: &domain.ResponseError{Message: msg}}
	}
	result := func(v any) domain.Response {
		raw, err := json.Marshal(v)
		if err != nil {
			return fail(err.Error())
		}
		return domain.Response{ID: req.ID, Result: raw}
	}

	switch req.Method {
	case domain.MethodConnect:
		if h.cfg.Secret != "" && (len(req.Params) < 2 || req.Params[1] != h.cfg.Secret) {
			return fail("invalid connect secret")
		}
		var perms []string
		if len(req.Params) >= 3 && req.Params[2] != "" {
			perms = strings.Split(req.Params[2], ",")
		}
		if err := h.approve(client, perms); err != nil {
			return fail(err.Error())
		}
		h.log.Info().Str("client", crypto.Fingerprint(client.Slice())).Msg("connection approved")
		return result("ack")

	case domain.MethodGetIdentity:
		return result(h.id.Pub.Hex())

	case domain.MethodSign:
		if len(req.Params) < 1 {
			return fail("sign: missing event")
		}
		var ev domain.JournalEvent
		if err := json.Unmarshal([]byte(req.Params[0]), &ev); err != nil {
			return fail("sign: malformed event")
		}
		return result(crypto.SignEvent(h.id, ev))

	case domain.MethodEncrypt:
		if len(req.Params) < 2 {
			return fail("encrypt: want recipient and plaintext")
		}
		to, err := domain.ParsePublicKey(req.Params[0])
		if err != nil {
			return fail("encrypt: bad recipient")
		}
		secret, err := crypto.DeriveSharedSecret(h.id.Priv, to)
		if err != nil {
			return fail("encrypt: bad recipient key")
		}
		ct, err := crypto.Seal(secret, []byte(req.Params[1]))
		if err != nil {
			return fail("encrypt failed")
		}
		return result(base64.StdEncoding.EncodeToString(ct))

	case domain.MethodDecrypt:
		if len(req.Params) < 2 {
			return fail("decrypt: want sender and ciphertext")
		}
		from, err := domain.ParsePublicKey(req.Params[0])
		if err != nil {
			return fail("decrypt: bad sender")
		}
		secret, err := crypto.DeriveSharedSecret(h.id.Priv, from)
		if err != nil {
			return fail("decrypt: bad sender key")
		}
		ct, err := base64.StdEncoding.DecodeString(req.Params[1])
		if err != nil {
			return fail("decrypt: bad ciphertext")
		}
		pt, ok := crypto.Open(secret, ct)
		if !ok {
			return fail("decrypt: unable to decrypt")
		}
		return result(string(pt))

	default:
		return fail("unknown method " + req.Method)
	}
}
