package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ssh"

	"signet/internal/domain"
)

// Fingerprint returns the lowercase hex SHA-256 of the key's wire encoding.
func Fingerprint(pub ssh.PublicKey) domain.Fingerprint {
	sum := sha256.Sum256(pub.Marshal())
	return domain.Fingerprint(hex.EncodeToString(sum[:]))
}

// FingerprintAuthorizedKey parses an armored public key and fingerprints it.
func FingerprintAuthorizedKey(armored string) (domain.Fingerprint, error) {
	pub, err := ParsePublicKey(armored)
	if err != nil {
		return "", err
	}
	return Fingerprint(pub), nil
}
