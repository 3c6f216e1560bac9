// Package auth performs the key-proof handshake with the coordination server.
//
// The handshake runs four steps in strict order, each depending on the
// previous one:
//
//  1. Ensure the device id exists (created through the IdentityStore).
//  2. Fetch a single-use challenge (session token) for the username.
//  3. Sign the canonical auth payload with the local key.
//  4. Submit the signature; the server's verdict decides the outcome.
//
// A negative verdict is a normal result (Result.Success == false), not an
// error. Failures of any step are returned as *AuthError.
package auth
