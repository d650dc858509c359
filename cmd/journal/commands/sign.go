package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmilam360/relaysigner/internal/domain"
)

func signCmd() *cobra.Command {
	var kind int

	cmd := &cobra.Command{
		Use:   "sign <content>",
		Short: "Have the key holder sign an event over the given content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resumeSession(cmd); err != nil {
				return err
			}
			signed, err := appCtx.Signer.Sign(cmd.Context(), domain.JournalEvent{
				CreatedAt: time.Now().Unix(),
				Kind:      kind,
				Content:   args[0],
			})
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(signed, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().IntVar(&kind, "kind", domain.KindNote, "event kind")
	return cmd
}
