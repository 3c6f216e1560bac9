package crypto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"signet/internal/domain"
)

// ErrInvalidUTF8 is returned when a canonical field is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("canonical: invalid UTF-8")

// Canonical serializes fields as a JSON object with keys in lexicographic
// order and no insignificant whitespace. Both ends of a signature must agree
// on these bytes. Values must be valid UTF-8.
func Canonical(fields map[string]string) ([]byte, error) {
	for k, v := range fields {
		if !utf8.ValidString(k) || !utf8.ValidString(v) {
			return nil, fmt.Errorf("%w: field %q", ErrInvalidUTF8, k)
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// AuthPayload returns the canonical bytes signed during the handshake.
func AuthPayload(sessionToken string, username domain.Username, publicKey string) ([]byte, error) {
	return Canonical(map[string]string{
		"sessionToken": sessionToken,
		"msg":          domain.AuthRequestMessage,
		"username":     username.String(),
		"publicKey":    publicKey,
	})
}

// InvitePayload returns the canonical bytes signed for an outbound invite.
func InvitePayload(fingerprint domain.Fingerprint, from, to domain.Username) ([]byte, error) {
	return Canonical(map[string]string{
		"fingerprint": fingerprint.String(),
		"from":        from.String(),
		"to":          to.String(),
	})
}
