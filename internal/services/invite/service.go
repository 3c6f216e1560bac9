package invite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"signet/internal/crypto"
	"signet/internal/domain"
)

// defaultSinkTimeout bounds one inbound save on the dispatch goroutine.
const defaultSinkTimeout = 10 * time.Second

// ErrNoTarget is returned when an invite names no recipient.
var ErrNoTarget = errors.New("invite: target username required")

// Service sends invites and forwards inbound ones.
type Service struct {
	signer      domain.Signer
	sink        domain.InviteSink
	sinkTimeout time.Duration
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithSinkTimeout bounds each SaveInvite call. Zero disables the bound.
func WithSinkTimeout(d time.Duration) Option {
	return func(s *Service) { s.sinkTimeout = d }
}

// New returns an invite service. sink may be nil, in which case inbound
// invites are only logged.
func New(signer domain.Signer, sink domain.InviteSink, opts ...Option) *Service {
	s := &Service{
		signer:      signer,
		sink:        sink,
		sinkTimeout: defaultSinkTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "invite")
	return s
}

// SendInvite signs an invite from one user to another and emits it on ch.
func (s *Service) SendInvite(
	ctx context.Context,
	ch domain.Emitter,
	from, to domain.Username,
	fingerprint domain.Fingerprint,
) error {
	if to == "" {
		return ErrNoTarget
	}
	payload, err := crypto.InvitePayload(fingerprint, from, to)
	if err != nil {
		return fmt.Errorf("building invite payload: %w", err)
	}
	signature, err := s.signer.Sign(ctx, payload)
	if err != nil {
		return fmt.Errorf("signing invite: %w", err)
	}
	cmd := domain.SendInviteCommand{Username: to, Signature: signature}
	if err := ch.Emit(ctx, domain.CommandSendInvite, cmd); err != nil {
		return err
	}
	s.logger.Debug("invite sent", "to", to)
	return nil
}

// RemoveInvite emits an unsigned revocation for to. Nothing is deduplicated.
func (s *Service) RemoveInvite(ctx context.Context, ch domain.Emitter, to domain.Username) error {
	if to == "" {
		return ErrNoTarget
	}
	if err := ch.Emit(ctx, domain.CommandRemoveInvite, domain.RemoveInviteCommand{Username: to}); err != nil {
		return err
	}
	s.logger.Debug("invite removed", "to", to)
	return nil
}

// OnInboundInvite forwards an invite event payload to the sink. It never
// fails; sink errors are logged.
func (s *Service) OnInboundInvite(payload json.RawMessage) {
	if s.sink == nil {
		s.logger.Info("invite received", "bytes", len(payload))
		return
	}
	err := s.withSink("save", func(ctx context.Context) error {
		return s.sink.SaveInvite(ctx, payload)
	})
	if err != nil {
		s.logger.Warn("inbound invite not stored", "error", err)
		return
	}
	s.logger.Info("invite received")
}

// OnInboundUninvite drops the stored invites of a sender who withdrew them.
// It needs a sink that can remove; otherwise the event is only logged.
func (s *Service) OnInboundUninvite(payload json.RawMessage) {
	var ev domain.InboundUninvite
	if err := json.Unmarshal(payload, &ev); err != nil || ev.User == "" {
		s.logger.Warn("malformed uninvite event", "payload", string(payload))
		return
	}
	remover, ok := s.sink.(domain.InviteRemover)
	if !ok {
		s.logger.Info("invite withdrawn", "from", ev.User)
		return
	}
	var n int64
	err := s.withSink("remove", func(ctx context.Context) error {
		var err error
		n, err = remover.RemoveInvitesFrom(ctx, ev.User)
		return err
	})
	if err != nil {
		s.logger.Warn("withdrawn invite not removed", "from", ev.User, "error", err)
		return
	}
	s.logger.Info("invite withdrawn", "from", ev.User, "removed", n)
}

// withSink runs fn with the sink timeout and turns a panic into an error.
func (s *Service) withSink(op string, fn func(ctx context.Context) error) (err error) {
	ctx := context.Background()
	if s.sinkTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.sinkTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invite sink %s panicked: %v", op, r)
		}
	}()
	return fn(ctx)
}
