// Command keyholderd runs a key holder: it owns one signing identity and
// answers connect, get_identity, sign, encrypt, and decrypt requests
// addressed to it over the configured relays.
//
// On first start a fresh identity is generated and its seed written to the
// key file; later starts reuse it, so the holder's identity is stable. With
// --approve the holder instead consumes a signerconnect:// descriptor
// advertised by a client, sends the approving connect request, and exits.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/mmilam360/relaysigner/internal/crypto"
	"github.com/mmilam360/relaysigner/internal/domain"
	"github.com/mmilam360/relaysigner/internal/logging"
	"github.com/mmilam360/relaysigner/internal/relay"
	"github.com/mmilam360/relaysigner/internal/services/holder"
)

type relayList []string

func (r *relayList) String() string     { return strings.Join(*r, ",") }
func (r *relayList) Set(v string) error { *r = append(*r, v); return nil }

func main() {
	var relays relayList
	flag.Var(&relays, "relay", "relay base URL (repeatable)")
	secret := flag.String("secret", "", "pre-shared connect secret embedded in the descriptor")
	keyFile := flag.String("key-file", defaultKeyFile(), "file holding the holder's identity seed")
	approve := flag.String("approve", "", "approve a signerconnect:// descriptor and exit")
	logLevel := flag.String("log-level", "info", "log level (trace..error)")
	flag.Parse()

	log := logging.New(*logLevel)
	if len(relays) == 0 {
		relays = relayList{"http://127.0.0.1:8080"}
	}

	id, err := loadOrCreateIdentity(*keyFile)
	if err != nil {
		log.Error().Err(err).Msg("identity unavailable")
		os.Exit(1)
	}

	svc := holder.New(id, relay.NewHTTP(nil, log), holder.Config{
		Relays: relays,
		Secret: *secret,
	}, log)
	svc.SetApprover(logApprover(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *approve != "" {
		if err := svc.ApproveLocal(ctx, *approve); err != nil {
			log.Error().Err(err).Msg("approval failed")
			os.Exit(1)
		}
		fmt.Println("Approved. The client's connect call should now complete.")
		return
	}

	fmt.Printf("Identity:   %s\n", svc.Identity().Hex())
	fmt.Printf("Descriptor: %s\n\n", svc.Descriptor())

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("key holder stopped")
		os.Exit(1)
	}
}

// logApprover accepts every client but leaves an audit line per request.
func logApprover(log zerolog.Logger) holder.Approver {
	return func(client domain.PublicKey, permissions []string) error {
		log.Info().
			Str("client", crypto.Fingerprint(client.Slice())).
			Strs("permissions", permissions).
			Msg("connect request")
		return nil
	}
}

func loadOrCreateIdentity(path string) (domain.ClientIdentity, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		seed, err := hex.DecodeString(strings.TrimSpace(string(raw)))
		if err != nil || len(seed) != 32 {
			return domain.ClientIdentity{}, fmt.Errorf("key file %s is corrupt", path)
		}
		return crypto.IdentityFromSeed(seed)

	case os.IsNotExist(err):
		id, err := crypto.GenerateIdentity()
		if err != nil {
			return domain.ClientIdentity{}, err
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return domain.ClientIdentity{}, err
		}
		seedHex := hex.EncodeToString(id.Priv.Seed())
		if err := os.WriteFile(path, []byte(seedHex+"\n"), 0o600); err != nil {
			return domain.ClientIdentity{}, err
		}
		return id, nil

	default:
		return domain.ClientIdentity{}, err
	}
}

func defaultKeyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "keyholder.seed"
	}
	return filepath.Join(home, ".keyholder", "identity.seed")
}
