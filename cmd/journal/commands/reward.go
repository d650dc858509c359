package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func rewardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reward",
		Short: "Record and list signed reward entries",
	}
	cmd.AddCommand(rewardAddCmd(), rewardListCmd())
	return cmd
}

func rewardAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <points> <reason>",
		Short: "Record a reward signed by the key holder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("points must be an integer: %w", err)
			}
			if err := resumeSession(cmd); err != nil {
				return err
			}
			e, err := appCtx.Rewards.Record(cmd.Context(), points, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d points (%s)\n", e.Points, e.ID)
			return nil
		},
	}
}

func rewardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded rewards in append order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := appCtx.Rewards.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No rewards yet.")
				return nil
			}
			total := 0
			for _, e := range all {
				when := time.Unix(e.CreatedAt, 0).Format("2006-01-02 15:04")
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %+4d  %s\n", when, e.Points, e.Reason)
				total += e.Points
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\n", total)
			return nil
		},
	}
}
