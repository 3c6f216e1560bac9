package interfaces

import (
	"context"
	"encoding/json"

	domaintypes "signet/internal/domain/types"
)

// RelayClient is how we talk to the coordination server's REST API.
type RelayClient interface {
	// FindUser returns the raw user record, or nil when the user does not exist.
	FindUser(ctx context.Context, username domaintypes.Username) (json.RawMessage, error)
	RegisterUser(ctx context.Context, reg domaintypes.Registration) (json.RawMessage, error)

	FetchChallenge(ctx context.Context, username domaintypes.Username) (domaintypes.Challenge, error)
	SubmitAuth(ctx context.Context, sub domaintypes.AuthSubmission) (domaintypes.AuthVerdict, error)
}
