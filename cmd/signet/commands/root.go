package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"signet/internal/app"
	"signet/internal/config"
	"signet/internal/logging"
)

var (
	home       string
	configPath string
	passphrase string
	apiURL     string
	serverURL  string
	logLevel   string

	settings config.Config
	logger   *slog.Logger
	appCtx   *app.App
)

// Execute runs the CLI until ctx is cancelled or the command returns.
func Execute(ctx context.Context) error {
	return execute(ctx, os.Args[1:])
}

func execute(ctx context.Context, args []string) error {
	root := &cobra.Command{
		Use:           "signet",
		Short:         "Key-proof sign-in and invites over a signal server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings()
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/"+config.DirName+")")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file, .toml or .yaml (default <home>/"+config.FileName+")")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the signing key (prompted when omitted)")
	root.PersistentFlags().StringVar(&apiURL, "api", "", "HTTP API base URL")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "channel server URL")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		initCmd(),
		fingerprintCmd(),
		registerCmd(),
		findCmd(),
		connectCmd(),
		inviteCmd(),
		uninviteCmd(),
		invitesCmd(),
	)

	root.SetArgs(args)
	err := errors.Join(root.ExecuteContext(ctx), closeApp())
	if err != nil {
		printError(root.ErrOrStderr(), err)
	}
	return err
}

// closeApp releases whatever wire built, whether or not the command failed.
func closeApp() error {
	if appCtx == nil {
		return nil
	}
	err := appCtx.Close()
	appCtx = nil
	return err
}

// loadSettings resolves home, reads the config file if present and applies
// flag overrides.
func loadSettings() error {
	if home == "" {
		home = config.DefaultHome()
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return err
	}

	path := configPath
	if path == "" {
		path = filepath.Join(home, config.FileName)
	}
	loaded, err := config.Load(path, home)
	switch {
	case err == nil:
		settings = *loaded
	case errors.Is(err, fs.ErrNotExist) && configPath == "":
		settings = config.Default(home)
	default:
		return err
	}

	if apiURL != "" {
		settings.APIURL = apiURL
	}
	if serverURL != "" {
		settings.ServerURL = serverURL
	}
	if logLevel != "" {
		settings.Logging.Level = logLevel
	}
	if err := settings.Finish(); err != nil {
		return err
	}

	logger = logging.New(settings.Logging, os.Stderr)
	slog.SetDefault(logger)
	return nil
}

// wire builds the app. Commands that sign pass needsKey so the passphrase
// is collected first.
func wire(needsKey bool) (*app.App, error) {
	if needsKey && passphrase == "" {
		p, err := promptPassphrase("Passphrase: ", false)
		if err != nil {
			return nil, err
		}
		passphrase = p
	}
	a, err := app.Wire(app.Config{Settings: settings, Passphrase: passphrase, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("initializing: %w", err)
	}
	appCtx = a
	return a, nil
}
