package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"signet/internal/domain"
)

// DefaultPath is used when the server URL has no path.
const DefaultPath = "/socket"

const closeWriteTimeout = time.Second

var (
	// ErrNotConnected is returned by Emit before Connect has succeeded.
	ErrNotConnected = errors.New("transport: not connected")
	// ErrClosed is returned once the socket has been closed.
	ErrClosed = errors.New("transport: closed")
	// ErrAlreadyConnected is returned by a second call to Connect.
	ErrAlreadyConnected = errors.New("transport: already connected")
)

// Frame is the unit of exchange on the channel.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Socket is a websocket-backed domain.Transport.
type Socket struct {
	endpoint string
	query    url.Values
	dialer   *websocket.Dialer
	header   http.Header
	logger   *slog.Logger

	mu       sync.RWMutex
	handlers map[string][]domain.EventHandler
	conn     *websocket.Conn
	started  bool

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Socket.
type Option func(*Socket)

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(s *Socket) { s.dialer = d }
}

// WithHeader adds headers to the upgrade request.
func WithHeader(h http.Header) Option {
	return func(s *Socket) { s.header = h.Clone() }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Socket) { s.logger = l }
}

// New returns an unconnected socket for serverURL. The descriptor travels
// to the server as the query string.
func New(serverURL string, desc domain.ConnectDescriptor, opts ...Option) *Socket {
	s := &Socket{
		endpoint: serverURL,
		query:    desc.Query(),
		dialer:   websocket.DefaultDialer,
		logger:   slog.Default(),
		handlers: make(map[string][]domain.EventHandler),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "transport")
	return s
}

// Factory returns a domain.TransportFactory producing sockets for serverURL.
func Factory(serverURL string, opts ...Option) domain.TransportFactory {
	return func(desc domain.ConnectDescriptor) domain.Transport {
		return New(serverURL, desc, opts...)
	}
}

// On registers h for event. Handlers for the same event run in registration order.
func (s *Socket) On(event string, h domain.EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], h)
}

// Connect dials the server and starts dispatching events.
func (s *Socket) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	s.started = true
	s.mu.Unlock()

	select {
	case <-s.done:
		return ErrClosed
	default:
	}

	target, err := DialURL(s.endpoint, s.query)
	if err != nil {
		s.finish()
		return err
	}

	conn, resp, err := s.dialer.DialContext(ctx, target, s.header)
	if err != nil {
		s.finish()
		if resp != nil {
			return fmt.Errorf("transport: dial %s: %s: %w", redact(target), resp.Status, err)
		}
		return fmt.Errorf("transport: dial %s: %w", redact(target), err)
	}

	s.mu.Lock()
	select {
	case <-s.done:
		s.mu.Unlock()
		_ = conn.Close()
		return ErrClosed
	default:
	}
	s.conn = conn
	s.mu.Unlock()

	s.logger.Debug("socket open", "url", redact(target))
	go s.readLoop(conn)
	return nil
}

// Emit sends a named command. Concurrent calls are written one at a time.
func (s *Socket) Emit(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("transport: encoding %s: %w", event, err)
	}
	frame, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return err
	}

	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	if conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("transport: writing %s: %w", event, err)
	}
	return nil
}

// Close sends a close frame, if connected, and releases the connection.
func (s *Socket) Close() error {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	s.finish()

	var err error
	if conn != nil {
		s.writeMu.Lock()
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWriteTimeout),
		)
		s.writeMu.Unlock()
		err = conn.Close()
	}
	return err
}

// Done is closed when the connection ends.
func (s *Socket) Done() <-chan struct{} { return s.done }

func (s *Socket) finish() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Socket) readLoop(conn *websocket.Conn) {
	defer s.finish()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Warn("socket read failed", "error", err)
				}
				reason, _ := json.Marshal(err.Error())
				s.dispatch(domain.EventDisconnect, reason)
			}
			return
		}

		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil || f.Event == "" {
			s.logger.Warn("dropping malformed frame", "bytes", len(msg))
			continue
		}
		s.dispatch(f.Event, f.Data)
	}
}

func (s *Socket) dispatch(event string, data json.RawMessage) {
	s.mu.RLock()
	hs := append([]domain.EventHandler(nil), s.handlers[event]...)
	s.mu.RUnlock()

	if len(hs) == 0 {
		s.logger.Debug("unhandled event", "event", event)
		return
	}
	for _, h := range hs {
		s.invoke(event, h, data)
	}
}

func (s *Socket) invoke(event string, h domain.EventHandler, data json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("event handler panicked", "event", event, "panic", r)
		}
	}()
	h(data)
}

var _ domain.Transport = (*Socket)(nil)
