package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func identityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identity",
		Short: "Print the key holder's public identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resumeSession(cmd); err != nil {
				return err
			}
			identity, err := appCtx.Signer.GetIdentity(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), identity)
			return nil
		},
	}
}

// resumeSession re-attaches to the persisted session for one-shot commands.
func resumeSession(cmd *cobra.Command) error {
	if err := requirePassphrase(); err != nil {
		return err
	}
	ok, err := appCtx.Signer.Resume(cmd.Context(), passphrase)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no active session; run 'journal connect'")
	}
	return nil
}
