package types

// AuthRequestMessage is the fixed msg field of the signed auth payload.
const AuthRequestMessage = "SIGNAL_AUTH_REQUEST"

// Challenge is issued by the server for a single handshake attempt.
type Challenge struct {
	SessionToken string `json:"sessionToken"`
}

// AuthSubmission is posted to the verification endpoint.
type AuthSubmission struct {
	Signature   string      `json:"signature"`
	Fingerprint Fingerprint `json:"fingerprint"`
	Username    Username    `json:"username"`
}

// AuthVerdict is the server's answer to an AuthSubmission.
type AuthVerdict struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

// Registration is the body of a user registration request.
type Registration struct {
	Username  Username `json:"username"`
	PublicKey string   `json:"publicKey"`
}
