// Package crypto exposes the minimal primitives used by signet.
//
// Contents
//
//   - Ed25519 key generation and authorized_keys armoring (GenerateSigningKey,
//     ParsePublicKey)
//   - Detached SSH-format signatures (SignDetached, VerifyDetached)
//   - Public-key fingerprints (Fingerprint, FingerprintAuthorizedKey)
//   - Canonical payload serialization (Canonical, AuthPayload, InvitePayload)
//
// # Notes
//
// Signatures are computed over canonical bytes only. The server rebuilds the
// same bytes from the fields it received and verifies against the armored
// public key registered for the user.
package crypto
