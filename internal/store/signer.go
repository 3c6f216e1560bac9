package store

import (
	"context"

	"signet/internal/crypto"
	"signet/internal/domain"
	"signet/internal/util/memzero"
)

// KeySigner signs with the sealed key of an IdentityFileStore. The key is
// unsealed for each signature and wiped right after.
type KeySigner struct {
	keys       *IdentityFileStore
	passphrase string
}

// NewKeySigner returns a Signer for the identity in keys.
func NewKeySigner(keys *IdentityFileStore, passphrase string) *KeySigner {
	return &KeySigner{keys: keys, passphrase: passphrase}
}

// Sign returns a detached signature over payload.
func (k *KeySigner) Sign(ctx context.Context, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	priv, err := k.keys.LoadPrivateKey(k.passphrase)
	if err != nil {
		return "", err
	}
	defer memzero.Zero(priv)
	return crypto.SignDetached(priv, payload)
}

var _ domain.Signer = (*KeySigner)(nil)
