// Package relay provides an HTTP implementation of the domain.RelayClient
// interface used by signet.
//
// Supported operations:
//   - Looking up a user record by name (GET /users/name/{username}).
//   - Registering a user and public key (POST /users).
//   - Fetching a handshake challenge (GET /token/{username}).
//   - Submitting a signed challenge for verification (POST /auth).
//
// All requests are JSON over HTTP and accept a context for cancellation and
// deadlines. A 404 is reported as ErrNotFound; other non-2xx statuses are
// returned as *StatusError carrying the method, path and status.
package relay
