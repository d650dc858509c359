package signer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
	"github.com/mmilam360/relaysigner/internal/protocol/handshake"
	"github.com/mmilam360/relaysigner/internal/protocol/rpc"
	"github.com/mmilam360/relaysigner/internal/util/memzero"
)

// Config carries the tunables for one signer session service.
type Config struct {
	Relays           []string
	Metadata         domain.AppMetadata
	Permissions      []string
	HandshakeTimeout time.Duration // default handshake.DefaultTimeout
	CallTimeout      time.Duration // default rpc.DefaultCallTimeout
	ResumeTimeout    time.Duration // bound on the single resume ping
}

const defaultResumeTimeout = 10 * time.Second

// Service is the session manager. One value per caller; all methods are safe
// for concurrent use.
type Service struct {
	cfg   Config
	relay domain.RelayClient
	store domain.SessionStore
	log   zerolog.Logger

	mu      sync.Mutex
	state   domain.State
	session *domain.Session
	disp    *rpc.Dispatcher
}

func New(relayClient domain.RelayClient, store domain.SessionStore, cfg Config, log zerolog.Logger) *Service {
	if cfg.ResumeTimeout <= 0 {
		cfg.ResumeTimeout = defaultResumeTimeout
	}
	return &Service{
		cfg:   cfg,
		relay: relayClient,
		store: store,
		log:   log,
		state: domain.StateDisconnected,
	}
}

var _ domain.Signer = (*Service)(nil)

// State reports the current lifecycle state.
func (s *Service) State() domain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ConnectLocal starts a locally-initiated handshake: the variant A
// descriptor is handed to onDescriptor for out-of-band transfer, then the
// call blocks until the key holder approves, the deadline passes, or ctx is
// cancelled. On success the session is persisted under passphrase.
func (s *Service) ConnectLocal(ctx context.Context, passphrase string, onDescriptor func(descriptor string)) error {
	return s.connect(ctx, passphrase, handshake.LocalInit{
		Metadata:     s.cfg.Metadata,
		Permissions:  s.cfg.Permissions,
		OnDescriptor: onDescriptor,
	})
}

// ConnectRemote runs a remotely-initiated handshake from a variant B
// descriptor supplied by the key holder.
func (s *Service) ConnectRemote(ctx context.Context, passphrase, descriptor string) error {
	return s.connect(ctx, passphrase, handshake.RemoteInit{
		Descriptor:  descriptor,
		Permissions: s.cfg.Permissions,
	})
}

func (s *Service) connect(ctx context.Context, passphrase string, mode handshake.Mode) error {
	s.mu.Lock()
	switch s.state {
	case domain.StateConnecting:
		s.mu.Unlock()
		return domain.ErrHandshakeInProgress
	case domain.StateConnected:
		s.mu.Unlock()
		return errors.New("already connected; disconnect first")
	}
	s.state = domain.StateConnecting
	s.mu.Unlock()

	id, err := crypto.GenerateIdentity()
	if err != nil {
		s.setState(domain.StateDisconnected)
		return err
	}

	neg := handshake.New(s.relay, s.cfg.Relays, s.cfg.HandshakeTimeout, s.log)
	sess, err := neg.Run(ctx, id, mode)
	if err != nil {
		s.setState(domain.StateDisconnected)
		return err
	}

	disp, err := rpc.New(s.relay, sess, s.cfg.CallTimeout, s.log)
	if err != nil {
		s.setState(domain.StateDisconnected)
		return err
	}

	if err := s.persist(passphrase, sess); err != nil {
		s.log.Warn().Err(err).Msg("session established but not persisted; resume will not work")
	}

	s.mu.Lock()
	if s.state != domain.StateConnecting {
		// Disconnect won the race while the handshake was finishing: tear
		// the fresh session straight back down instead of resurrecting it.
		s.mu.Unlock()
		disp.Close()
		memzero.Zero(sess.Client.Priv[:])
		_ = s.store.ClearSession()
		return errors.New("handshake aborted by disconnect")
	}
	s.session = &sess
	s.disp = disp
	s.state = domain.StateConnected
	s.mu.Unlock()

	s.log.Info().
		Str("holder", crypto.Fingerprint(sess.Remote.Slice())).
		Int("relays", len(sess.Relays)).
		Msg("signer session established")
	return nil
}

// Resume rebuilds the session from the store without repeating a handshake.
// It performs exactly one get_identity round trip to confirm the holder is
// reachable. A missing record or an unreachable holder yields (false, nil)
// and the disconnected state; the caller is expected to run a handshake.
func (s *Service) Resume(ctx context.Context, passphrase string) (bool, error) {
	s.mu.Lock()
	switch s.state {
	case domain.StateConnecting:
		s.mu.Unlock()
		return false, domain.ErrHandshakeInProgress
	case domain.StateConnected:
		s.mu.Unlock()
		return true, nil
	}
	s.state = domain.StateConnecting
	s.mu.Unlock()

	ok, err := s.resume(ctx, passphrase)
	if !ok {
		s.setState(domain.StateDisconnected)
	}
	return ok, err
}

func (s *Service) resume(ctx context.Context, passphrase string) (bool, error) {
	rec, found, err := s.store.LoadSession(passphrase)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}

	seed, err := hex.DecodeString(rec.ClientSecretHex)
	if err != nil || len(seed) != 32 {
		// Unusable record; drop it so the next run starts clean.
		_ = s.store.ClearSession()
		return false, nil
	}
	id, err := crypto.IdentityFromSeed(seed)
	memzero.Zero(seed)
	if err != nil {
		return false, nil
	}

	sess := domain.Session{Client: id, Remote: rec.RemotePublic, Relays: rec.Relays}
	disp, err := rpc.New(s.relay, sess, s.cfg.CallTimeout, s.log)
	if err != nil {
		return false, nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.ResumeTimeout)
	defer cancel()
	if _, err := disp.Call(pingCtx, domain.MethodGetIdentity, nil); err != nil {
		s.log.Info().Err(err).Msg("resume ping failed; falling back to disconnected")
		disp.Close()
		return false, nil
	}

	s.mu.Lock()
	if s.state != domain.StateConnecting {
		s.mu.Unlock()
		disp.Close()
		memzero.Zero(sess.Client.Priv[:])
		return false, nil
	}
	s.session = &sess
	s.disp = disp
	s.state = domain.StateConnected
	s.mu.Unlock()

	s.log.Info().Str("holder", crypto.Fingerprint(sess.Remote.Slice())).Msg("signer session resumed")
	return true, nil
}

// GetIdentity asks the key holder for its public identity string.
func (s *Service) GetIdentity(ctx context.Context) (string, error) {
	raw, err := s.call(ctx, domain.MethodGetIdentity, nil)
	if err != nil {
		return "", err
	}
	var identity string
	if err := json.Unmarshal(raw, &identity); err != nil {
		return "", fmt.Errorf("get_identity result: %w", err)
	}
	return identity, nil
}

// Sign has the key holder sign the event and verifies the returned
// signature against the session's remote identity before handing it back.
func (s *Service) Sign(ctx context.Context, ev domain.JournalEvent) (domain.JournalEvent, error) {
	evJSON, err := json.Marshal(ev)
	if err != nil {
		return domain.JournalEvent{}, err
	}
	raw, err := s.call(ctx, domain.MethodSign, []string{string(evJSON)})
	if err != nil {
		return domain.JournalEvent{}, err
	}

	var signed domain.JournalEvent
	if err := json.Unmarshal(raw, &signed); err != nil {
		return domain.JournalEvent{}, fmt.Errorf("sign result: %w", err)
	}
	remote, err := s.remote()
	if err != nil {
		return domain.JournalEvent{}, err
	}
	if signed.Pubkey != remote.Hex() || !crypto.VerifyEvent(signed) {
		return domain.JournalEvent{}, errors.New("key holder returned an invalid signature")
	}
	return signed, nil
}

// Encrypt asks the key holder to encrypt plaintext for recipient to.
func (s *Service) Encrypt(ctx context.Context, to domain.PublicKey, plaintext string) (string, error) {
	return s.stringCall(ctx, domain.MethodEncrypt, []string{to.Hex(), plaintext})
}

// Decrypt asks the key holder to decrypt ciphertext from sender from.
func (s *Service) Decrypt(ctx context.Context, from domain.PublicKey, ciphertext string) (string, error) {
	return s.stringCall(ctx, domain.MethodDecrypt, []string{from.Hex(), ciphertext})
}

// Disconnect tears down the session: pending requests fail, the client
// secret is wiped, and the persisted record is cleared.
func (s *Service) Disconnect() error {
	s.mu.Lock()
	disp := s.disp
	sess := s.session
	s.disp = nil
	s.session = nil
	s.state = domain.StateDisconnected
	s.mu.Unlock()

	if disp != nil {
		disp.Close()
	}
	if sess != nil {
		memzero.Zero(sess.Client.Priv[:])
	}
	if err := s.store.ClearSession(); err != nil {
		return fmt.Errorf("clear session store: %w", err)
	}
	s.log.Info().Msg("signer session closed")
	return nil
}

func (s *Service) call(ctx context.Context, method string, params []string) (json.RawMessage, error) {
	s.mu.Lock()
	disp := s.disp
	connected := s.state == domain.StateConnected
	s.mu.Unlock()
	if !connected || disp == nil {
		return nil, domain.ErrNoActiveSession
	}
	raw, err := disp.Call(ctx, method, params)
	if errors.Is(err, rpc.ErrClosed) {
		return nil, domain.ErrNoActiveSession
	}
	return raw, err
}

func (s *Service) stringCall(ctx context.Context, method string, params []string) (string, error) {
	raw, err := s.call(ctx, method, params)
	if err != nil {
		return "", err
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%s result: %w", method, err)
	}
	return out, nil
}

func (s *Service) remote() (domain.PublicKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return domain.PublicKey{}, domain.ErrNoActiveSession
	}
	return s.session.Remote, nil
}

func (s *Service) setState(st domain.State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Service) persist(passphrase string, sess domain.Session) error {
	if passphrase == "" {
		return errors.New("no passphrase; skipping persistence")
	}
	return s.store.SaveSession(passphrase, domain.SessionRecord{
		ClientSecretHex: hex.EncodeToString(sess.Client.Priv.Seed()),
		RemotePublic:    sess.Remote,
		Relays:          sess.Relays,
	})
}
