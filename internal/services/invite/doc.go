// Package invite exchanges signed invites over an established channel.
//
// Outbound invites sign {fingerprint, from, to} but put only the target
// username and the signature on the wire; the server binds the rest through
// the signature. Revocations are unsigned. Inbound invites are handed to an
// InviteSink unchanged and any failure there stays inside this package.
package invite
