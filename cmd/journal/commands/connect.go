package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func connectCmd() *cobra.Command {
	var (
		descriptor string
		listen     bool
	)

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Pair with a key holder",
		Long: `Pair with a key holder over the configured relays.

With --descriptor, the handshake is driven from a keyholder:// URI handed
out by the holder. With --listen (the default), the command prints a
signerconnect:// descriptor for you to paste into the key holder, then
waits for approval.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if descriptor != "" && listen {
				return fmt.Errorf("--descriptor and --listen are mutually exclusive")
			}
			if err := requirePassphrase(); err != nil {
				return err
			}
			ctx := cmd.Context()

			if descriptor != "" {
				if err := appCtx.Signer.ConnectRemote(ctx, passphrase, descriptor); err != nil {
					return err
				}
			} else {
				err := appCtx.Signer.ConnectLocal(ctx, passphrase, func(d string) {
					fmt.Fprintln(cmd.OutOrStdout(), "Share this with your key holder, then wait for approval:")
					fmt.Fprintln(cmd.OutOrStdout())
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n\n", d)
				})
				if err != nil {
					return err
				}
			}

			identity, err := appCtx.Signer.GetIdentity(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Connected. Key holder identity: %s\n", identity)
			return nil
		},
	}

	cmd.Flags().StringVar(&descriptor, "descriptor", "", "keyholder:// descriptor from the key holder")
	cmd.Flags().BoolVar(&listen, "listen", false, "advertise a descriptor and wait for holder approval")
	return cmd
}
