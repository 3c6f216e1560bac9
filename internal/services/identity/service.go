package identity

import (
	"context"
	"fmt"
	"unicode"

	"signet/internal/crypto"
	"signet/internal/domain"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)
)

// KeyStore creates and reads the identity on disk.
type KeyStore interface {
	domain.IdentityStore
	CreateIdentity(username domain.Username, passphrase string, overwrite bool) (domain.Identity, error)
}

// Service manages identity creation and access using a backing store.
type Service struct {
	store KeyStore
}

// New returns an identity service backed by the given store.
func New(s KeyStore) *Service { return &Service{store: s} }

// GenerateIdentity creates a signing key for username, sealed with the
// passphrase, and returns the identity with its fingerprint. An existing
// identity is only replaced when overwrite is set.
func (s *Service) GenerateIdentity(
	username domain.Username,
	passphrase string,
	overwrite bool,
) (domain.Identity, error) {
	if !isSecurePassphrase(passphrase) {
		return domain.Identity{}, ErrWeakPassphrase
	}
	return s.store.CreateIdentity(username, passphrase, overwrite)
}

// LoadIdentity returns the stored identity with its fingerprint filled in.
func (s *Service) LoadIdentity(ctx context.Context) (domain.Identity, error) {
	id, err := s.store.LoadIdentity(ctx)
	if err != nil {
		return domain.Identity{}, err
	}
	fp, err := crypto.FingerprintAuthorizedKey(id.PublicKey)
	if err != nil {
		return domain.Identity{}, err
	}
	id.Fingerprint = fp
	return id, nil
}

// FingerprintIdentity returns the fingerprint of the local public key.
func (s *Service) FingerprintIdentity(ctx context.Context) (domain.Fingerprint, error) {
	id, err := s.LoadIdentity(ctx)
	if err != nil {
		return "", err
	}
	return id.Fingerprint, nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len([]rune(passphrase)) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}
