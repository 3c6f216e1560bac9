package interfaces

import "context"

// Signer produces a detached signature over payload with the local private key.
type Signer interface {
	Sign(ctx context.Context, payload []byte) (string, error)
}

// SignerFunc adapts a function to the Signer interface.
type SignerFunc func(ctx context.Context, payload []byte) (string, error)

// Sign calls f.
func (f SignerFunc) Sign(ctx context.Context, payload []byte) (string, error) {
	return f(ctx, payload)
}
