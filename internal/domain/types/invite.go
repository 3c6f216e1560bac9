package types

import (
	"encoding/json"
	"time"
)

// Channel event and command names.
const (
	EventConnect        = "connect"
	EventDisconnect     = "disconnect"
	EventError          = "error"
	EventInvite         = "invite"
	EventUninvite       = "uninvite"
	CommandSendInvite   = "sendInvite"
	CommandRemoveInvite = "removeInvite"
)

// SendInviteCommand is the wire payload of an outbound invite. The signed
// content also covers the sender and fingerprint, which are not repeated
// here.
type SendInviteCommand struct {
	Username  Username `json:"username"`
	Signature string   `json:"signature"`
}

// RemoveInviteCommand revokes an earlier invite. It is not signed.
type RemoveInviteCommand struct {
	Username Username `json:"username"`
}

// InboundInvite holds the fields the client reads from an invite event.
// The full payload travels alongside it unchanged.
type InboundInvite struct {
	User      Username `json:"user"`
	Signature string   `json:"signature"`
}

// InboundUninvite names the sender of an invite that was withdrawn.
type InboundUninvite struct {
	User Username `json:"user"`
}

// StoredInvite is a received invite as kept by the invite store.
type StoredInvite struct {
	ID         int64
	From       Username
	Signature  string
	Payload    json.RawMessage
	ReceivedAt time.Time
}
