package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func registerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Publish your username and public key to the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire(false)
			if err != nil {
				return err
			}
			id, err := a.Identity.LoadIdentity(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := a.Signal.Register(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("registering %s: %w", id.Username, err)
			}
			okColor.Fprintf(cmd.OutOrStdout(), "Registered %s.\n", id.Username)
			if len(rec) > 0 {
				dimColor.Fprintln(cmd.OutOrStdout(), string(rec))
			}
			return nil
		},
	}
}
