package interfaces

import (
	"context"
	"encoding/json"

	domaintypes "signet/internal/domain/types"
)

// IdentityStore holds the local identity profile.
type IdentityStore interface {
	LoadIdentity(ctx context.Context) (domaintypes.Identity, error)
	// EnsureDeviceID returns the device id, creating and persisting one if
	// none exists yet.
	EnsureDeviceID(ctx context.Context) (domaintypes.DeviceID, error)
}

// InviteSink receives inbound invite payloads for validation and storage.
type InviteSink interface {
	SaveInvite(ctx context.Context, payload json.RawMessage) error
}

// InviteRemover drops stored invites once their sender withdraws them.
type InviteRemover interface {
	RemoveInvitesFrom(ctx context.Context, from domaintypes.Username) (int64, error)
}

// InviteStore is an InviteSink that can also list and remove what it kept.
type InviteStore interface {
	InviteSink
	InviteRemover
	ListInvites(ctx context.Context, limit int) ([]domaintypes.StoredInvite, error)
}
