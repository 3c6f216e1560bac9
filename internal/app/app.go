package app

import (
	"errors"
	"log/slog"

	"signet/internal/relay"
	identitysvc "signet/internal/services/identity"
	"signet/internal/signal"
	"signet/internal/store"
)

// App is the wired dependency graph.
type App struct {
	Logger   *slog.Logger
	Keys     *store.IdentityFileStore
	Identity *identitysvc.Service
	Invites  *store.InviteDB
	Relay    *relay.HTTP
	Signal   *signal.Client
}

// Close ends any live session and releases the invite database.
func (a *App) Close() error {
	return errors.Join(a.Signal.Close(), a.Invites.Close())
}
