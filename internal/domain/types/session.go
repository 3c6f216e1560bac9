package types

import "net/url"

// ConnectDescriptor carries the credentials of a channel connection. The
// transport forwards it to the server without interpreting it.
type ConnectDescriptor struct {
	Username Username
	DeviceID DeviceID
	Token    string
}

// Query encodes the descriptor as the connection query string.
func (d ConnectDescriptor) Query() url.Values {
	q := url.Values{}
	q.Set("username", d.Username.String())
	q.Set("deviceId", d.DeviceID.String())
	q.Set("token", d.Token)
	return q
}
