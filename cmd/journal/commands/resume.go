package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func resumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Re-attach to a persisted session without a new handshake",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			ok, err := appCtx.Signer.Resume(cmd.Context(), passphrase)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no resumable session; run 'journal connect'")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session resumed.")
			return nil
		},
	}
}
