package devserver

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"signet/internal/crypto"
	"signet/internal/domain"
	"signet/internal/transport"
)

const (
	// DefaultChallengeTTL bounds how long a challenge may be answered.
	DefaultChallengeTTL = 2 * time.Minute
	// DefaultTokenTTL is the lifetime of an issued channel token.
	DefaultTokenTTL = 12 * time.Hour

	maxBodyBytes = 64 << 10
)

// Server is the in-memory signal server.
type Server struct {
	reg      *registry
	tokens   *tokenIssuer
	hub      *hub
	upgrader websocket.Upgrader
	logger   *slog.Logger

	challengeTTL time.Duration
	tokenTTL     time.Duration
	now          func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithChallengeTTL sets how long an issued challenge stays valid.
func WithChallengeTTL(d time.Duration) Option {
	return func(s *Server) { s.challengeTTL = d }
}

// WithTokenTTL sets the lifetime of channel tokens.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.tokenTTL = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New returns a Server that signs channel tokens with secret.
func New(secret []byte, opts ...Option) *Server {
	s := &Server{
		hub:          newHub(),
		logger:       slog.Default(),
		challengeTTL: DefaultChallengeTTL,
		tokenTTL:     DefaultTokenTTL,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "devserver")
	s.reg = newRegistry(s.challengeTTL, s.now)
	s.tokens = &tokenIssuer{secret: secret, ttl: s.tokenTTL}
	s.upgrader = websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	return s
}

// Handler returns the HTTP handler serving the API and the channel.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", s.handleRegister)
	mux.HandleFunc("GET /users/name/{name}", s.handleFindUser)
	mux.HandleFunc("GET /token/{name}", s.handleChallenge)
	mux.HandleFunc("POST /auth", s.handleAuth)
	mux.HandleFunc("GET "+transport.DefaultPath, s.handleSocket)
	return s.accessLog(mux)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	if err := decodeBody(w, r, &reg); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if reg.Username == "" || reg.PublicKey == "" {
		httpError(w, http.StatusBadRequest, "username and publicKey are required")
		return
	}
	fp, err := crypto.FingerprintAuthorizedKey(reg.PublicKey)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.reg.add(reg.Username, reg.PublicKey, fp)
	if errors.Is(err, errUserExists) {
		httpError(w, http.StatusConflict, err.Error())
		return
	}
	s.logger.Info("user registered", "username", rec.Username, "fingerprint", rec.Fingerprint)
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleFindUser(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.reg.lookup(domain.Username(r.PathValue("name")))
	if !ok {
		httpError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	tok, err := s.reg.issueChallenge(domain.Username(r.PathValue("name")))
	if err != nil {
		httpError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, domain.Challenge{SessionToken: tok})
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var sub domain.AuthSubmission
	if err := decodeBody(w, r, &sub); err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.verify(sub); err != nil {
		s.logger.Info("auth rejected", "username", sub.Username, "reason", err)
		writeJSON(w, http.StatusOK, domain.AuthVerdict{Success: false})
		return
	}
	token, err := s.tokens.issue(sub.Username.String(), s.now())
	if err != nil {
		httpError(w, http.StatusInternalServerError, "issuing token")
		return
	}
	s.logger.Info("auth accepted", "username", sub.Username)
	writeJSON(w, http.StatusOK, domain.AuthVerdict{Success: true, Token: token})
}

// verify checks a submission against the user's registered key and the
// challenge it answers. The challenge is consumed either way.
func (s *Server) verify(sub domain.AuthSubmission) error {
	rec, ok := s.reg.lookup(sub.Username)
	if !ok {
		return errUnknownUser
	}
	challenge, err := s.reg.takeChallenge(sub.Username)
	if err != nil {
		return err
	}
	if sub.Fingerprint != rec.Fingerprint {
		return errors.New("fingerprint does not match registered key")
	}
	pub, err := crypto.ParsePublicKey(rec.PublicKey)
	if err != nil {
		return err
	}
	payload, err := crypto.AuthPayload(challenge, rec.Username, rec.PublicKey)
	if err != nil {
		return err
	}
	return crypto.VerifyDetached(pub, payload, sub.Signature)
}

func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username := domain.Username(q.Get("username"))
	deviceID := domain.DeviceID(q.Get("deviceId"))
	token := q.Get("token")
	if username == "" || deviceID == "" || token == "" {
		httpError(w, http.StatusBadRequest, "username, deviceId and token are required")
		return
	}
	subject, err := s.tokens.subject(token)
	if err != nil {
		httpError(w, http.StatusUnauthorized, err.Error())
		return
	}
	if subject != username.String() {
		httpError(w, http.StatusUnauthorized, "token was issued to another user")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrade failed", "error", err)
		return
	}
	p := &peer{conn: conn, username: username, deviceID: deviceID}
	s.hub.join(p)
	defer func() {
		s.hub.leave(p)
		_ = conn.Close()
		s.logger.Info("socket closed", "username", username, "device_id", deviceID)
	}()

	s.logger.Info("socket connected", "username", username, "device_id", deviceID)
	if err := p.send(domain.EventConnect, map[string]string{
		"username": username.String(),
		"deviceId": deviceID.String(),
	}); err != nil {
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var f transport.Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			_ = p.sendError("malformed frame")
			continue
		}
		s.route(p, f)
	}
}

func (s *Server) route(p *peer, f transport.Frame) {
	switch f.Event {
	case domain.CommandSendInvite:
		var cmd domain.SendInviteCommand
		if err := json.Unmarshal(f.Data, &cmd); err != nil || cmd.Username == "" || cmd.Signature == "" {
			_ = p.sendError("sendInvite requires username and signature")
			return
		}
		if _, ok := s.reg.lookup(cmd.Username); !ok {
			_ = p.sendError(fmt.Sprintf("unknown user %q", cmd.Username))
			return
		}
		from, _ := s.reg.lookup(p.username)
		n := s.hub.deliver(cmd.Username, domain.EventInvite, map[string]string{
			"user":        p.username.String(),
			"signature":   cmd.Signature,
			"fingerprint": from.Fingerprint.String(),
		})
		s.logger.Info("invite routed", "from", p.username, "to", cmd.Username, "sockets", n)

	case domain.CommandRemoveInvite:
		var cmd domain.RemoveInviteCommand
		if err := json.Unmarshal(f.Data, &cmd); err != nil || cmd.Username == "" {
			_ = p.sendError("removeInvite requires username")
			return
		}
		n := s.hub.deliver(cmd.Username, domain.EventUninvite, map[string]string{
			"user": p.username.String(),
		})
		s.logger.Info("invite removed", "from", p.username, "to", cmd.Username, "sockets", n)

	default:
		_ = p.sendError(fmt.Sprintf("unknown event %q", f.Event))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
		)
	})
}
