package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"signet/internal/app"
	"signet/internal/services/session"
)

var errRejected = errors.New("server rejected authentication")

// connect opens the channel and reports errors the server sends on it.
func connect(ctx context.Context, a *app.App, out io.Writer) (*session.Session, error) {
	a.Signal.OnChannelError(func(data json.RawMessage) {
		warnColor.Fprint(out, "server error: ")
		fmt.Fprintln(out, string(data))
	})
	s, err := a.Signal.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errRejected
	}
	return s, nil
}

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Sign in and listen for invites until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wire(true)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			s, err := connect(ctx, a, out)
			if err != nil {
				return err
			}
			okColor.Fprintf(out, "Connected as %s (device %s). Press Ctrl-C to quit.\n",
				s.Identity.Username, s.Identity.DeviceID)

			select {
			case <-ctx.Done():
				fmt.Fprintln(out, "Disconnecting.")
				return nil
			case <-s.Done():
				return errors.New("connection closed by server")
			}
		},
	}
}
