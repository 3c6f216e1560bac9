package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
api_url = "https://signal.example.com"
server_url = "wss://signal.example.com/socket"
handshake_timeout = "5s"
connect_timeout = "0s"

[logging]
level = "debug"
format = "json"
`)
	cfg, err := Load(path, "/tmp/home")
	require.NoError(t, err)

	assert.Equal(t, "https://signal.example.com", cfg.APIURL)
	assert.Equal(t, "wss://signal.example.com/socket", cfg.ServerURL)
	assert.Equal(t, 5*time.Second, cfg.HandshakeTimeout)
	assert.Zero(t, cfg.ConnectTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/home", cfg.Home)
	assert.Equal(t, filepath.Join("/tmp/home", "invites.db"), cfg.Invites.Path)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
api_url: "http://localhost:9000"
connect_timeout: "1m"
invites:
  path: "/var/lib/signet/invites.db"
`)
	cfg, err := Load(path, "/tmp/home")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000", cfg.APIURL)
	assert.Equal(t, Default("").ServerURL, cfg.ServerURL)
	assert.Equal(t, time.Minute, cfg.ConnectTimeout)
	assert.Equal(t, 15*time.Second, cfg.HandshakeTimeout)
	assert.Equal(t, "/var/lib/signet/invites.db", cfg.Invites.Path)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SIGNET_TEST_API", "https://api.example.org")
	path := writeConfig(t, "config.yml", `api_url: "${SIGNET_TEST_API}"`)

	cfg, err := Load(path, "/tmp/home")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.org", cfg.APIURL)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]struct {
		name, content string
	}{
		"bad duration":   {"c.toml", `connect_timeout = "soon"`},
		"negative":       {"c.toml", `handshake_timeout = "-1s"`},
		"bad level":      {"c.toml", "[logging]\nlevel = \"loud\""},
		"bad format":     {"c.yaml", "logging:\n  format: xml"},
		"bad api scheme": {"c.toml", `api_url = "ftp://x"`},
		"bad server":     {"c.toml", `server_url = "gopher://x"`},
		"syntax":         {"c.toml", `api_url = `},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.name, tc.content), "/tmp/home")
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"), "/tmp/home")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSaveThenLoad(t *testing.T) {
	for _, name := range []string{"config.toml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			want := Default("/tmp/home")
			want.APIURL = "https://relay.example.net"
			want.ConnectTimeoutRaw = "45s"

			require.NoError(t, Save(path, want))
			got, err := Load(path, "/elsewhere")
			require.NoError(t, err)

			assert.Equal(t, "https://relay.example.net", got.APIURL)
			assert.Equal(t, 45*time.Second, got.ConnectTimeout)
			assert.Equal(t, "/tmp/home", got.Home)
		})
	}
}

func TestValidate_RequiresHome(t *testing.T) {
	cfg := Default("")
	assert.Error(t, cfg.Validate())
}
