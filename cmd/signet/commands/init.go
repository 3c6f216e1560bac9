package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"signet/internal/config"
	"signet/internal/domain"
)

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init <username>",
		Short: "Generate a signing key and store it encrypted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				p, err := promptPassphrase("New passphrase: ", true)
				if err != nil {
					return err
				}
				passphrase = p
			}
			a, err := wire(false)
			if err != nil {
				return err
			}

			id, err := a.Identity.GenerateIdentity(domain.Username(args[0]), passphrase, force)
			if err != nil {
				return err
			}

			// Leave a config file behind so later runs need no flags.
			path := configPath
			if path == "" {
				path = filepath.Join(home, config.FileName)
			}
			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				if err := config.Save(path, settings); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			okColor.Fprintf(out, "Identity created for %s.\n", id.Username)
			fmt.Fprint(out, "Fingerprint: ")
			keyColor.Fprintln(out, id.Fingerprint)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing identity")
	return cmd
}
