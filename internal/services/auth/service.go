package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"signet/internal/crypto"
	"signet/internal/domain"
	"signet/internal/relay"
)

// Handshake steps, as reported in AuthError.Step.
const (
	StepDeviceID    = "device-id"
	StepChallenge   = "challenge"
	StepFingerprint = "fingerprint"
	StepSign        = "sign"
	StepSubmit      = "submit"
)

// AuthError reports which handshake step failed.
type AuthError struct {
	Step string
	Err  error
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth %s: %v", e.Step, e.Err) }

func (e *AuthError) Unwrap() error { return e.Err }

// Result is the outcome of a completed handshake. Token is only meaningful
// when Success is true. Identity is the caller's identity with DeviceID and
// Fingerprint filled in.
type Result struct {
	Success  bool
	Token    string
	Identity domain.Identity
}

// Service runs the handshake.
type Service struct {
	ids     domain.IdentityStore
	relay   domain.RelayClient
	signer  domain.Signer
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds a whole Authenticate call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a handshake service.
func New(ids domain.IdentityStore, rc domain.RelayClient, signer domain.Signer, opts ...Option) *Service {
	s := &Service{ids: ids, relay: rc, signer: signer, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "auth")
	return s
}

// Authenticate proves possession of the identity's private key and returns
// the session token issued by the server.
func (s *Service) Authenticate(ctx context.Context, id domain.Identity) (Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// 1. Device id must exist before anything reaches the server.
	if !id.HasDeviceID() {
		deviceID, err := s.ids.EnsureDeviceID(ctx)
		if err != nil {
			return Result{}, &AuthError{Step: StepDeviceID, Err: err}
		}
		if deviceID == "" {
			return Result{}, &AuthError{Step: StepDeviceID, Err: errors.New("identity store returned an empty device id")}
		}
		s.logger.Info("device id created", "device_id", deviceID)
		id.DeviceID = deviceID
	}

	// 2. Challenge.
	challenge, err := s.relay.FetchChallenge(ctx, id.Username)
	if errors.Is(err, relay.ErrNotFound) {
		s.logger.Info("server does not know user", "username", id.Username)
		return Result{Identity: id}, nil
	}
	if err != nil {
		return Result{}, &AuthError{Step: StepChallenge, Err: err}
	}
	if challenge.SessionToken == "" {
		return Result{}, &AuthError{Step: StepChallenge, Err: errors.New("server returned an empty session token")}
	}

	// 3. Sign the canonical payload.
	fp, err := crypto.FingerprintAuthorizedKey(id.PublicKey)
	if err != nil {
		return Result{}, &AuthError{Step: StepFingerprint, Err: err}
	}
	id.Fingerprint = fp

	payload, err := crypto.AuthPayload(challenge.SessionToken, id.Username, id.PublicKey)
	if err != nil {
		return Result{}, &AuthError{Step: StepSign, Err: err}
	}
	signature, err := s.signer.Sign(ctx, payload)
	if err != nil {
		return Result{}, &AuthError{Step: StepSign, Err: err}
	}

	// 4. Submit; the verdict is authoritative.
	verdict, err := s.relay.SubmitAuth(ctx, domain.AuthSubmission{
		Signature:   signature,
		Fingerprint: fp,
		Username:    id.Username,
	})
	if err != nil {
		return Result{}, &AuthError{Step: StepSubmit, Err: err}
	}

	if !verdict.Success {
		s.logger.Info("authentication rejected", "username", id.Username)
		return Result{Identity: id}, nil
	}
	if verdict.Token == "" {
		s.logger.Warn("server reported success without a token", "username", id.Username)
		return Result{Identity: id}, nil
	}

	s.logger.Debug("authenticated", "username", id.Username, "fingerprint", fp)
	return Result{Success: true, Token: verdict.Token, Identity: id}, nil
}
