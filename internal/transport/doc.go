// Package transport implements the persistent event channel over a websocket.
//
// Every message in either direction is a JSON frame:
//
//	{"event": "<name>", "data": <any JSON>}
//
// A Socket is created unconnected so callers can register handlers with On
// before Connect starts the read loop; no event the server sends after the
// upgrade can be dispatched before those handlers exist. The server confirms
// an authenticated session by sending the "connect" event. Handlers run on
// the single read goroutine, in arrival order.
package transport
