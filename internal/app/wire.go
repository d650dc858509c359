package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/mmilam360/relaysigner/internal/domain"
	"github.com/mmilam360/relaysigner/internal/logging"
	"github.com/mmilam360/relaysigner/internal/relay"
	"github.com/mmilam360/relaysigner/internal/services/notes"
	"github.com/mmilam360/relaysigner/internal/services/rewards"
	"github.com/mmilam360/relaysigner/internal/services/signer"
	"github.com/mmilam360/relaysigner/internal/store"
)

// Wire bundles the stores, services, and clients behind the CLI.
type Wire struct {
	Store   *store.Bolt
	Relay   domain.RelayClient
	Signer  *signer.Service
	Notes   *notes.Service
	Rewards *rewards.Service
	Log     zerolog.Logger
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	log := logging.New(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.Open(filepath.Join(cfg.DataDir, "journal.db"))
	if err != nil {
		return nil, err
	}

	rc := relay.NewHTTP(nil, log)
	signerSvc := signer.New(rc, st, signer.Config{
		Relays:           cfg.Relays,
		Metadata:         domain.AppMetadata{Name: cfg.App.Name, Description: cfg.App.Description},
		Permissions:      cfg.Permissions,
		HandshakeTimeout: cfg.Timeouts.Handshake(),
		CallTimeout:      cfg.Timeouts.Call(),
		ResumeTimeout:    cfg.Timeouts.Resume(),
	}, log)

	return &Wire{
		Store:   st,
		Relay:   rc,
		Signer:  signerSvc,
		Notes:   notes.New(signerSvc, st),
		Rewards: rewards.New(signerSvc, st),
		Log:     log,
	}, nil
}

// Close releases the store. The signer session, if any, stays persisted for
// a later resume.
func (w *Wire) Close() error { return w.Store.Close() }
