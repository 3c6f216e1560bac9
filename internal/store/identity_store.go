package store

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"signet/internal/crypto"
	"signet/internal/domain"
	"signet/internal/util/memzero"
)

const (
	profileFilename = "profile.json"
	keyFilename     = "signing_key.enc"
)

var (
	// ErrNoIdentity is returned when no local identity has been created yet.
	ErrNoIdentity = errors.New("no local identity (run init first)")

	// ErrIdentityExists is returned by CreateIdentity when a profile is already present.
	ErrIdentityExists = errors.New("identity already exists")
)

// profile is the on-disk identity document. The private key lives in a
// separate sealed file.
type profile struct {
	Username  domain.Username `json:"username"`
	PublicKey string          `json:"publicKey"`
	DeviceID  domain.DeviceID `json:"deviceId,omitempty"`
}

// IdentityFileStore persists the local identity profile and signing key to disk.
type IdentityFileStore struct {
	dir   string
	mu    sync.Mutex
	newID func() string
}

// NewIdentityFileStore returns an IdentityFileStore rooted at dir.
func NewIdentityFileStore(dir string) *IdentityFileStore {
	return &IdentityFileStore{dir: dir, newID: uuid.NewString}
}

// CreateIdentity generates a signing key for username, seals it with the
// passphrase and writes a fresh profile. The device id is left for
// EnsureDeviceID to assign.
func (s *IdentityFileStore) CreateIdentity(username domain.Username, passphrase string, overwrite bool) (domain.Identity, error) {
	if strings.TrimSpace(username.String()) == "" {
		return domain.Identity{}, errors.New("username required")
	}
	if passphrase == "" {
		return domain.Identity{}, errors.New("passphrase required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !overwrite {
		var existing profile
		if err := readJSON(s.path(profileFilename), &existing); err != nil {
			return domain.Identity{}, err
		}
		if existing.PublicKey != "" {
			return domain.Identity{}, ErrIdentityExists
		}
	}

	priv, armored, err := crypto.GenerateSigningKey()
	if err != nil {
		return domain.Identity{}, err
	}
	seed := priv.Seed()
	defer memzero.ZeroAll(seed, priv)

	N, r, p := scryptParamsDefault()
	sealed, err := seal(passphrase, seed, N, r, p)
	if err != nil {
		return domain.Identity{}, err
	}
	if err := writeFile(s.path(keyFilename), sealed, 0o600); err != nil {
		return domain.Identity{}, err
	}

	pr := profile{Username: username, PublicKey: armored}
	if err := writeJSON(s.path(profileFilename), pr, 0o600); err != nil {
		return domain.Identity{}, err
	}

	fp, err := crypto.FingerprintAuthorizedKey(armored)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{Username: username, PublicKey: armored, Fingerprint: fp}, nil
}

// LoadIdentity reads the identity profile. The fingerprint is not filled in.
func (s *IdentityFileStore) LoadIdentity(ctx context.Context) (domain.Identity, error) {
	if err := ctx.Err(); err != nil {
		return domain.Identity{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pr, err := s.loadProfileLocked()
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		Username:  pr.Username,
		PublicKey: pr.PublicKey,
		DeviceID:  pr.DeviceID,
	}, nil
}

// EnsureDeviceID returns the stored device id, creating one on first use.
func (s *IdentityFileStore) EnsureDeviceID(ctx context.Context) (domain.DeviceID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	pr, err := s.loadProfileLocked()
	if err != nil {
		return "", err
	}
	if pr.DeviceID != "" {
		return pr.DeviceID, nil
	}
	pr.DeviceID = domain.DeviceID(s.newID())
	if err := writeJSON(s.path(profileFilename), pr, 0o600); err != nil {
		return "", fmt.Errorf("saving device id: %w", err)
	}
	return pr.DeviceID, nil
}

// LoadPrivateKey unseals the signing key. Callers should wipe it when done.
func (s *IdentityFileStore) LoadPrivateKey(passphrase string) (ed25519.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path(keyFilename))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoIdentity
	}
	if err != nil {
		return nil, err
	}
	seed, err := unseal(passphrase, b)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(seed)
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing key: want %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

func (s *IdentityFileStore) loadProfileLocked() (profile, error) {
	var pr profile
	if err := readJSON(s.path(profileFilename), &pr); err != nil {
		return profile{}, fmt.Errorf("reading profile: %w", err)
	}
	if pr.Username == "" || pr.PublicKey == "" {
		return profile{}, ErrNoIdentity
	}
	return pr, nil
}

func (s *IdentityFileStore) path(name string) string { return filepath.Join(s.dir, name) }

// Compile-time assertion that IdentityFileStore implements domain.IdentityStore.
var _ domain.IdentityStore = (*IdentityFileStore)(nil)
