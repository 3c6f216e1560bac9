package signal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"signet/internal/domain"
	"signet/internal/services/auth"
	"signet/internal/services/invite"
	"signet/internal/services/session"
)

// ErrNotConnected is returned by channel operations when no session is live.
var ErrNotConnected = errors.New("signal: not connected")

// Client ties the handshake, the session and the invite channel together.
type Client struct {
	ids      domain.IdentityStore
	relay    domain.RelayClient
	auth     *auth.Service
	sessions *session.Manager
	invites  *invite.Service
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New assembles a Client from its collaborators.
func New(
	ids domain.IdentityStore,
	rc domain.RelayClient,
	authSvc *auth.Service,
	sessions *session.Manager,
	invites *invite.Service,
	opts ...Option,
) *Client {
	c := &Client{
		ids:      ids,
		relay:    rc,
		auth:     authSvc,
		sessions: sessions,
		invites:  invites,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "signal")
	return c
}

// Connect authenticates the stored identity and opens the channel. A live
// session is returned as is. When the server rejects the handshake Connect
// returns a nil session and a nil error.
func (c *Client) Connect(ctx context.Context) (*session.Session, error) {
	if s := c.sessions.Current(); s != nil {
		return s, nil
	}

	id, err := c.ids.LoadIdentity(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading identity: %w", err)
	}

	res, err := c.auth.Authenticate(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		c.logger.Info("not connected: authentication rejected", "username", id.Username)
		return nil, nil
	}

	return c.sessions.Open(ctx, res.Identity, res.Token)
}

// Session returns the live session, or nil.
func (c *Client) Session() *session.Session { return c.sessions.Current() }

// FindUser returns the server's record for username unchanged, or nil when
// the user does not exist.
func (c *Client) FindUser(ctx context.Context, username domain.Username) (json.RawMessage, error) {
	return c.relay.FindUser(ctx, username)
}

// Register publishes id's username and public key.
func (c *Client) Register(ctx context.Context, id domain.Identity) (json.RawMessage, error) {
	return c.relay.RegisterUser(ctx, domain.Registration{Username: id.Username, PublicKey: id.PublicKey})
}

// SendInvite sends a signed invite to target over the live session.
func (c *Client) SendInvite(ctx context.Context, target domain.Username) error {
	s := c.sessions.Current()
	if s == nil {
		return ErrNotConnected
	}
	return c.invites.SendInvite(ctx, s, s.Identity.Username, target, s.Identity.Fingerprint)
}

// RemoveInvite withdraws an invite to target over the live session.
func (c *Client) RemoveInvite(ctx context.Context, target domain.Username) error {
	s := c.sessions.Current()
	if s == nil {
		return ErrNotConnected
	}
	return c.invites.RemoveInvite(ctx, s, target)
}

// OnChannelError registers h for error events received on the channel.
func (c *Client) OnChannelError(h domain.EventHandler) { c.sessions.OnChannelError(h) }

// Close ends the live session, if any.
func (c *Client) Close() error { return c.sessions.Close() }
