package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Tear down the session and clear the persisted record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.Signer.Disconnect(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Disconnected. Run 'journal connect' to pair again.")
			return nil
		},
	}
}
