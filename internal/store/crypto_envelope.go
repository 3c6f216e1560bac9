package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"signet/internal/util/memzero"
)

const (
	// The current supported version of the encrypted key format stored on disk.
	keystoreFormatVersion = 1

	// Bound into the AEAD as associated data alongside the salt.
	keystoreLabel = "signet-signing-key"
)

var (
	// Returned when the passphrase is incorrect or the ciphertext has been modified / corrupted.
	errWrongPassphrase = errors.New("wrong passphrase or corrupted signing key")
)

// sealedKey is the on-disk JSON structure holding the ciphertext and KDF parameters.
type sealedKey struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	Nonce  []byte `json:"nonce"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// seal derives a key from passphrase and encrypts raw into a JSON document.
func seal(passphrase string, raw []byte, N, r, p int) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	aead, err := deriveAEAD(passphrase, salt, N, r, p)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, raw, associatedData(salt))

	return json.Marshal(sealedKey{
		V:      keystoreFormatVersion,
		Salt:   salt,
		Nonce:  nonce,
		N:      N,
		R:      r,
		P:      p,
		Cipher: ct,
	})
}

// unseal decrypts a document produced by seal.
func unseal(passphrase string, b []byte) ([]byte, error) {
	var sk sealedKey
	if err := json.Unmarshal(b, &sk); err != nil {
		return nil, fmt.Errorf("decoding sealed key: %w", err)
	}
	if sk.V > keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", sk.V)
	}
	aead, err := deriveAEAD(passphrase, sk.Salt, sk.N, sk.R, sk.P)
	if err != nil {
		return nil, err
	}
	if len(sk.Nonce) != aead.NonceSize() {
		return nil, errWrongPassphrase
	}
	pt, err := aead.Open(nil, sk.Nonce, sk.Cipher, associatedData(sk.Salt))
	if err != nil {
		return nil, errWrongPassphrase
	}
	return pt, nil
}

func deriveAEAD(passphrase string, salt []byte, N, r, p int) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)
	return chacha20poly1305.New(key)
}

func associatedData(salt []byte) []byte {
	return append([]byte(keystoreLabel), salt...)
}

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }
