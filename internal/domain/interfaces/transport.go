package interfaces

import (
	"context"
	"encoding/json"

	domaintypes "signet/internal/domain/types"
)

// EventHandler receives the data of one inbound channel event.
type EventHandler func(data json.RawMessage)

// Emitter sends named commands over a live channel.
type Emitter interface {
	Emit(ctx context.Context, event string, payload any) error
}

// Transport is a duplex, event-based connection to the server.
//
// Handlers registered with On before Connect observe every event the
// server sends, including the connect acknowledgment.
type Transport interface {
	Emitter
	On(event string, h EventHandler)
	// Connect dials the server and starts event dispatch. It returns once the
	// socket exists; the server's connect event confirms the session.
	Connect(ctx context.Context) error
	Close() error
	// Done is closed when the connection ends for any reason.
	Done() <-chan struct{}
}

// TransportFactory creates an unconnected transport for a descriptor.
type TransportFactory func(desc domaintypes.ConnectDescriptor) Transport
