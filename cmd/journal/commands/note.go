package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func noteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage encrypted journal entries",
	}
	cmd.AddCommand(noteAddCmd(), noteListCmd(), noteReadCmd(), noteRmCmd())
	return cmd
}

func noteAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <title> <body>",
		Short: "Encrypt and store a new entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resumeSession(cmd); err != nil {
				return err
			}
			n, err := appCtx.Notes.Add(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", n.ID, n.Title)
			return nil
		},
	}
}

func noteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := appCtx.Notes.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No entries.")
				return nil
			}
			for _, n := range all {
				when := time.Unix(n.CreatedAt, 0).Format("2006-01-02 15:04")
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", n.ID, when, n.Title)
			}
			return nil
		},
	}
}

func noteReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <id>",
		Short: "Decrypt and print one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resumeSession(cmd); err != nil {
				return err
			}
			body, err := appCtx.Notes.Read(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), body)
			return nil
		},
	}
}

func noteRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appCtx.Notes.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
}
