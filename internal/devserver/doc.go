// Package devserver is an in-memory signal server for local development and
// end-to-end tests.
//
// HTTP API
//
//	POST /users              {username, publicKey} -> user record (201)
//	GET  /users/name/{name}  user record, or 404
//	GET  /token/{name}       {sessionToken}; single use, expires after a TTL
//	POST /auth               {signature, fingerprint, username} -> {success, token?}
//	GET  /socket             websocket; query username, deviceId, token
//
// Channel
//
// Frames are {"event", "data"} objects. After the token and descriptor are
// checked the server sends "connect". A "sendInvite" {username, signature}
// is delivered to every socket of the target as "invite"
// {user, signature, fingerprint}; "removeInvite" {username} is delivered as
// "uninvite" {user}. Problems are reported with an "error" frame and never
// close the socket.
//
// All state is held in memory and lost on exit.
package devserver
