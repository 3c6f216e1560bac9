// Package session opens and tracks the authenticated channel.
//
// A Manager owns at most one live Session. Open registers the error and
// invite listeners on a fresh transport, connects it, and returns only once
// the server acknowledges the connection; creating the socket is not enough.
// Concurrent Open calls share one attempt, and an Open while a session is
// live returns that session.
package session
