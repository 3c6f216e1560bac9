// Package main runs the in-memory signal server used by signet during
// development and tests.
//
// It serves the user registry, the challenge/response sign-in and the
// websocket channel described in package devserver. Channel tokens are
// HS256 JWTs signed with --secret (or $SIGNET_RELAY_SECRET); when neither
// is set a random secret is generated, so tokens do not survive a restart.
//
// All state is held in memory and lost on exit. The default listen address
// is :8080.
package main
