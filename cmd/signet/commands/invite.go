package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"signet/internal/domain"
)

func inviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invite <username>",
		Short: "Send a signed invite to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire(true)
			if err != nil {
				return err
			}
			if _, err := connect(cmd.Context(), a, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if err := a.Signal.SendInvite(cmd.Context(), domain.Username(args[0])); err != nil {
				return fmt.Errorf("inviting %s: %w", args[0], err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Invite sent to %s.\n", args[0])
			return nil
		},
	}
}

func uninviteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninvite <username>",
		Short: "Withdraw an invite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire(true)
			if err != nil {
				return err
			}
			if _, err := connect(cmd.Context(), a, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if err := a.Signal.RemoveInvite(cmd.Context(), domain.Username(args[0])); err != nil {
				return fmt.Errorf("withdrawing invite to %s: %w", args[0], err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Invite to %s withdrawn.\n", args[0])
			return nil
		},
	}
}

func invitesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "invites",
		Short: "List invites received while connected",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire(false)
			if err != nil {
				return err
			}
			invs, err := a.Invites.ListInvites(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(invs) == 0 {
				dimColor.Fprintln(out, "No invites.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FROM\tRECEIVED\tSIGNATURE")
			for _, inv := range invs {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", inv.From, inv.ReceivedAt.Local().Format("2006-01-02 15:04:05"), shorten(inv.Signature, 16))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of invites to show (0 for all)")
	return cmd
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
