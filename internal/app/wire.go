package app

import (
	"fmt"
	"net/http"
	"os"

	"signet/internal/logging"
	"signet/internal/relay"
	authsvc "signet/internal/services/auth"
	identitysvc "signet/internal/services/identity"
	invitesvc "signet/internal/services/invite"
	sessionsvc "signet/internal/services/session"
	"signet/internal/signal"
	"signet/internal/store"
	"signet/internal/transport"
)

// Wire constructs the dependency graph from cfg.
func Wire(cfg Config) (*App, error) {
	s := cfg.Settings

	logger := cfg.Logger
	if logger == nil {
		out := cfg.LogOutput
		if out == nil {
			out = os.Stderr
		}
		logger = logging.New(s.Logging, out)
	}

	// File-based identity and the key-backed signer
	keys := store.NewIdentityFileStore(s.Home)
	signer := store.NewKeySigner(keys, cfg.Passphrase)

	invites, err := store.NewInviteDB(s.Invites.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("opening invite store: %w", err)
	}

	// Ensure an HTTP client is available for outbound calls
	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	rc := relay.NewHTTP(s.APIURL, httpClient)

	// High-level services
	auth := authsvc.New(keys, rc, signer,
		authsvc.WithTimeout(s.HandshakeTimeout),
		authsvc.WithLogger(logger),
	)
	inv := invitesvc.New(signer, invites, invitesvc.WithLogger(logger))
	sessions := sessionsvc.NewManager(
		transport.Factory(s.ServerURL, transport.WithLogger(logger)),
		sessionsvc.WithInviteHandler(inv.OnInboundInvite),
		sessionsvc.WithUninviteHandler(inv.OnInboundUninvite),
		sessionsvc.WithConnectTimeout(s.ConnectTimeout),
		sessionsvc.WithLogger(logger),
	)

	return &App{
		Logger:   logger,
		Keys:     keys,
		Identity: identitysvc.New(keys),
		Invites:  invites,
		Relay:    rc,
		Signal:   signal.New(keys, rc, auth, sessions, inv, signal.WithLogger(logger)),
	}, nil
}
