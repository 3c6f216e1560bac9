package commands

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"signet/internal/domain"
)

func findCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <username>",
		Short: "Look up a user on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire(false)
			if err != nil {
				return err
			}
			rec, err := a.Signal.FindUser(cmd.Context(), domain.Username(args[0]))
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("user %q not found", args[0])
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, rec, "", "  "); err != nil {
				pretty.Reset()
				pretty.Write(rec)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pretty.String())
			return nil
		},
	}
}
