package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print identity fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire(false)
			if err != nil {
				return err
			}
			fp, err := a.Identity.FingerprintIdentity(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), "Fingerprint: ")
			keyColor.Fprintln(cmd.OutOrStdout(), fp)
			return nil
		},
	}
}
