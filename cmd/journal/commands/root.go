package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmilam360/relaysigner/internal/app"
)

var (
	cfgPath    string
	passphrase string
	relayURLs  []string
	dataDir    string

	appCtx *app.Wire
)

func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:           "journal",
		Short:         "Encrypted journal backed by a remote key holder",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.Load(cfgPath)
			if err != nil {
				return err
			}
			if len(relayURLs) > 0 {
				cfg.Relays = relayURLs
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}
			appCtx, err = app.NewWire(cfg)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appCtx != nil {
				_ = appCtx.Close()
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default journal.toml defaults)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the session record")
	root.PersistentFlags().StringArrayVar(&relayURLs, "relay", nil, "relay base URL (repeatable, overrides config)")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.journal)")

	root.AddCommand(
		connectCmd(),
		resumeCmd(),
		identityCmd(),
		signCmd(),
		noteCmd(),
		rewardCmd(),
		disconnectCmd(),
	)
	return root.ExecuteContext(ctx)
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}
