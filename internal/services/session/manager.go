package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"signet/internal/domain"
)

var (
	// ErrClosedBeforeAck is returned when the channel ends before the server
	// acknowledges the connection.
	ErrClosedBeforeAck = errors.New("session: channel closed before connect acknowledgment")

	// ErrMissingCredentials is returned when the descriptor would be incomplete.
	ErrMissingCredentials = errors.New("session: username, device id and token are required")
)

// Session is a live, authenticated channel.
type Session struct {
	Token    string
	Identity domain.Identity

	channel domain.Transport
	opened  time.Time
}

// Emit sends a command over the session's channel.
func (s *Session) Emit(ctx context.Context, event string, payload any) error {
	return s.channel.Emit(ctx, event, payload)
}

// Done is closed when the channel ends.
func (s *Session) Done() <-chan struct{} { return s.channel.Done() }

// Close ends the session.
func (s *Session) Close() error { return s.channel.Close() }

// OpenedAt reports when the server acknowledged the session.
func (s *Session) OpenedAt() time.Time { return s.opened }

var _ domain.Emitter = (*Session)(nil)

// Manager opens sessions and keeps track of the live one.
type Manager struct {
	newTransport domain.TransportFactory
	onInvite     domain.EventHandler
	onUninvite   domain.EventHandler
	timeout      time.Duration
	logger       *slog.Logger

	mu          sync.Mutex
	current     *Session
	errHandlers []domain.EventHandler
	group       singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithConnectTimeout bounds the wait for the server's acknowledgment. Zero
// waits until the context ends.
func WithConnectTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

// WithInviteHandler receives inbound invite events.
func WithInviteHandler(h domain.EventHandler) Option {
	return func(m *Manager) { m.onInvite = h }
}

// WithUninviteHandler receives events withdrawing an earlier invite.
func WithUninviteHandler(h domain.EventHandler) Option {
	return func(m *Manager) { m.onUninvite = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager returns a Manager that creates channels with newTransport.
func NewManager(newTransport domain.TransportFactory, opts ...Option) *Manager {
	m := &Manager{newTransport: newTransport, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// OnChannelError registers h for error events on every channel this manager
// opens. Channel errors never end the session.
func (m *Manager) OnChannelError(h domain.EventHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errHandlers = append(m.errHandlers, h)
}

// Current returns the live session, or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	select {
	case <-m.current.Done():
		m.current = nil
		return nil
	default:
		return m.current
	}
}

// Open connects a channel for id using token. If a session is already live
// it is returned unchanged; callers racing an in-flight Open receive its
// result.
func (m *Manager) Open(ctx context.Context, id domain.Identity, token string) (*Session, error) {
	if s := m.Current(); s != nil {
		return s, nil
	}
	v, err, shared := m.group.Do("open", func() (any, error) {
		if s := m.Current(); s != nil {
			return s, nil
		}
		return m.open(ctx, id, token)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		m.logger.Debug("joined in-flight session open")
	}
	return v.(*Session), nil
}

// Close ends the live session, if any.
func (m *Manager) Close() error {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Close()
}

func (m *Manager) open(ctx context.Context, id domain.Identity, token string) (*Session, error) {
	desc := domain.ConnectDescriptor{Username: id.Username, DeviceID: id.DeviceID, Token: token}
	if desc.Username == "" || desc.DeviceID == "" || desc.Token == "" {
		return nil, ErrMissingCredentials
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	ch := m.newTransport(desc)

	// Every listener is registered before Connect.
	ch.On(domain.EventError, m.handleChannelError)
	ch.On(domain.EventInvite, m.handleInvite)
	ch.On(domain.EventUninvite, m.handleUninvite)

	acked := make(chan struct{})
	var ackOnce sync.Once
	ch.On(domain.EventConnect, func(json.RawMessage) {
		ackOnce.Do(func() { close(acked) })
	})

	if err := ch.Connect(ctx); err != nil {
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	select {
	case <-acked:
	case <-ch.Done():
		return nil, ErrClosedBeforeAck
	case <-ctx.Done():
		_ = ch.Close()
		return nil, fmt.Errorf("waiting for connect acknowledgment: %w", ctx.Err())
	}

	s := &Session{Token: token, Identity: id, channel: ch, opened: time.Now()}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()

	m.logger.Info("session established", "username", id.Username, "device_id", id.DeviceID)
	go m.watch(s)
	return s, nil
}

// watch clears the live slot once the session's channel ends.
func (m *Manager) watch(s *Session) {
	<-s.Done()
	m.mu.Lock()
	if m.current == s {
		m.current = nil
	}
	m.mu.Unlock()
	m.logger.Info("session ended", "username", s.Identity.Username, "duration", time.Since(s.opened).Round(time.Second))
}

func (m *Manager) handleChannelError(data json.RawMessage) {
	m.logger.Warn("channel error", "data", string(data))

	m.mu.Lock()
	hs := append([]domain.EventHandler(nil), m.errHandlers...)
	m.mu.Unlock()
	for _, h := range hs {
		h(data)
	}
}

func (m *Manager) handleInvite(data json.RawMessage) {
	if m.onInvite == nil {
		m.logger.Debug("invite event with no handler")
		return
	}
	m.onInvite(data)
}

func (m *Manager) handleUninvite(data json.RawMessage) {
	if m.onUninvite == nil {
		m.logger.Debug("uninvite event with no handler")
		return
	}
	m.onUninvite(data)
}
