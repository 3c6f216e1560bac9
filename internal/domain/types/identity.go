package types

// Identity is the local device identity presented to the server.
//
// PublicKey is the armored (authorized_keys) form of the Ed25519 key.
// Fingerprint is derived from PublicKey and is not persisted.
type Identity struct {
	Username    Username    `json:"username"`
	PublicKey   string      `json:"publicKey"`
	Fingerprint Fingerprint `json:"-"`
	DeviceID    DeviceID    `json:"deviceId,omitempty"`
}

// HasDeviceID reports whether a device id has been assigned.
func (id Identity) HasDeviceID() bool { return id.DeviceID != "" }
