package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"
)

// GenerateSigningKey returns a new Ed25519 private key and its public key in
// authorized_keys form (without the trailing newline).
func GenerateSigningKey() (ed25519.PrivateKey, string, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, "", err
	}
	armored, err := ArmorPublicKey(pub)
	if err != nil {
		return nil, "", err
	}
	return priv, armored, nil
}

// ArmorPublicKey encodes pub as a single authorized_keys line.
func ArmorPublicKey(pub ed25519.PublicKey) (string, error) {
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("encoding public key: %w", err)
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub))), nil
}

// ParsePublicKey parses an armored public key.
func ParsePublicKey(armored string) (ssh.PublicKey, error) {
	pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(armored))
	if err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return pub, nil
}

// SignDetached signs msg with priv and returns the base64 SSH signature blob.
func SignDetached(priv ed25519.PrivateKey, msg []byte) (string, error) {
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return "", fmt.Errorf("creating signer: %w", err)
	}
	sig, err := signer.Sign(rand.Reader, msg)
	if err != nil {
		return "", fmt.Errorf("signing: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ssh.Marshal(sig)), nil
}

// VerifyDetached checks a signature produced by SignDetached.
func VerifyDetached(pub ssh.PublicKey, msg []byte, signature string) error {
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	sig := new(ssh.Signature)
	if err := ssh.Unmarshal(raw, sig); err != nil {
		return fmt.Errorf("invalid signature format: %w", err)
	}
	if err := pub.Verify(msg, sig); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
