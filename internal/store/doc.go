// Package store provides local persistence for signet.
//
// It contains concrete implementations of the domain storage interfaces:
//   - Identity profile and encrypted signing key on disk (IdentityFileStore)
//   - A Signer backed by that key (KeySigner)
//   - Received invites in SQLite (InviteDB)
//
// The identity profile is plain JSON; the private key is sealed with a key
// derived from the user's passphrase. All methods are safe for concurrent use.
package store
