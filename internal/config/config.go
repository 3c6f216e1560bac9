package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

const (
	// DirName is the directory under the user's home holding client state.
	DirName = ".signet"
	// FileName is the config file looked up in the home directory.
	FileName = "config.toml"
)

// Config holds the client's settings.
type Config struct {
	APIURL    string `toml:"api_url" yaml:"api_url"`
	ServerURL string `toml:"server_url" yaml:"server_url"`
	Home      string `toml:"home" yaml:"home"`

	// Parsed durations; zero means unbounded.
	HandshakeTimeout time.Duration `toml:"-" yaml:"-"`
	ConnectTimeout   time.Duration `toml:"-" yaml:"-"`

	HandshakeTimeoutRaw string `toml:"handshake_timeout" yaml:"handshake_timeout"`
	ConnectTimeoutRaw   string `toml:"connect_timeout" yaml:"connect_timeout"`

	Logging LoggingConfig `toml:"logging" yaml:"logging"`
	Invites InvitesConfig `toml:"invites" yaml:"invites"`
}

// LoggingConfig selects the log level and output format.
type LoggingConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// InvitesConfig locates the received-invite database.
type InvitesConfig struct {
	Path string `toml:"path" yaml:"path"`
}

// DefaultHome returns $HOME/.signet, or .signet when the home directory is
// unknown.
func DefaultHome() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(h, DirName)
}

// Default returns the settings used when no file overrides them.
func Default(home string) Config {
	return Config{
		APIURL:              "http://127.0.0.1:8080",
		ServerURL:           "http://127.0.0.1:8080",
		Home:                home,
		HandshakeTimeout:    15 * time.Second,
		ConnectTimeout:      30 * time.Second,
		HandshakeTimeoutRaw: "15s",
		ConnectTimeoutRaw:   "30s",
		Logging:             LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path on top of Default(home), then validates the result.
func Load(path, home string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default(home)
	if err := loaderFor(path).decode([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes cfg to path in the encoding its extension selects.
func Save(path string, cfg Config) error {
	data, err := loaderFor(path).encode(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Finish parses durations, fills derived paths and validates. Callers that
// change fields after Load, for example from flags, call it again.
func (c *Config) Finish() error {
	if err := parseDurations(c); err != nil {
		return fmt.Errorf("parsing durations: %w", err)
	}
	if c.Invites.Path == "" && c.Home != "" {
		c.Invites.Path = filepath.Join(c.Home, "invites.db")
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envRef.FindStringSubmatch(match)[1])
	})
}

func parseDurations(c *Config) error {
	var err error
	if c.HandshakeTimeoutRaw != "" {
		c.HandshakeTimeout, err = time.ParseDuration(c.HandshakeTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing handshake_timeout %q: %w", c.HandshakeTimeoutRaw, err)
		}
	}
	if c.ConnectTimeoutRaw != "" {
		c.ConnectTimeout, err = time.ParseDuration(c.ConnectTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing connect_timeout %q: %w", c.ConnectTimeoutRaw, err)
		}
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Home == "" {
		return fmt.Errorf("home is required")
	}
	if err := checkURL("api_url", c.APIURL, "http", "https"); err != nil {
		return err
	}
	if err := checkURL("server_url", c.ServerURL, "http", "https", "ws", "wss"); err != nil {
		return err
	}
	if c.HandshakeTimeout < 0 {
		return fmt.Errorf("handshake_timeout must not be negative")
	}
	if c.ConnectTimeout < 0 {
		return fmt.Errorf("connect_timeout must not be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format)
	}
	return nil
}

func checkURL(field, raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported scheme %q", field, u.Scheme)
}
