package types

// Username represents a server-registered identity.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is a short deterministic identifier derived from a public key.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// DeviceID identifies one installation of the client. It is created once
// and never changes afterwards.
type DeviceID string

// String returns the string form of the device id.
func (d DeviceID) String() string { return string(d) }
