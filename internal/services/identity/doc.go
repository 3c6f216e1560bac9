// Package identity manages creation and inspection of the local device identity.
//
// It enforces passphrase policy before a signing key is generated and sealed
// by the backing store, and derives fingerprints from the stored public key.
package identity
