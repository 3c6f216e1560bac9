package app_test

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/app"
	"signet/internal/config"
	"signet/internal/devserver"
)

func TestWire_ConnectsThroughDevServer(t *testing.T) {
	srv := httptest.NewServer(devserver.New([]byte("secret")).Handler())
	t.Cleanup(srv.Close)

	settings := config.Default(t.TempDir())
	settings.APIURL = srv.URL
	settings.ServerURL = srv.URL
	require.NoError(t, settings.Finish())

	const pass = "Str0ng-Passphrase!"
	a, err := app.Wire(app.Config{Settings: settings, Passphrase: pass, HTTP: srv.Client(), LogOutput: io.Discard})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	ctx := context.Background()
	id, err := a.Identity.GenerateIdentity("alice", pass, false)
	require.NoError(t, err)

	_, err = a.Signal.Register(ctx, id)
	require.NoError(t, err)

	s, err := a.Signal.Connect(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, id.Fingerprint, s.Identity.Fingerprint)

	assert.Equal(t, filepath.Join(settings.Home, "invites.db"), settings.Invites.Path)
	assert.FileExists(t, settings.Invites.Path)
}

func TestWire_BadInvitePath(t *testing.T) {
	settings := config.Default(t.TempDir())
	settings.Invites.Path = filepath.Join("/dev/null", "invites.db")

	_, err := app.Wire(app.Config{Settings: settings, LogOutput: io.Discard})
	assert.Error(t, err)
}
