// Package signal is the client façade applications use: register and look
// up users, connect an authenticated channel, and send or withdraw invites
// over it.
package signal
