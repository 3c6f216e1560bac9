// Package domain holds the identity, handshake, session and invite types
// plus the collaborator interfaces (stores, signer, relay client, transport)
// the services are written against. Types live in domain/types and
// contracts in domain/interfaces; this package re-exports both.
package domain
