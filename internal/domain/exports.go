package domain

import (
	interfaces "signet/internal/domain/interfaces"
	types "signet/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username            = types.Username
	Fingerprint         = types.Fingerprint
	DeviceID            = types.DeviceID
	Identity            = types.Identity
	Challenge           = types.Challenge
	AuthSubmission      = types.AuthSubmission
	AuthVerdict         = types.AuthVerdict
	Registration        = types.Registration
	ConnectDescriptor   = types.ConnectDescriptor
	SendInviteCommand   = types.SendInviteCommand
	RemoveInviteCommand = types.RemoveInviteCommand
	InboundInvite       = types.InboundInvite
	InboundUninvite     = types.InboundUninvite
	StoredInvite        = types.StoredInvite
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityStore    = interfaces.IdentityStore
	InviteSink       = interfaces.InviteSink
	InviteRemover    = interfaces.InviteRemover
	InviteStore      = interfaces.InviteStore
	Signer           = interfaces.Signer
	SignerFunc       = interfaces.SignerFunc
	RelayClient      = interfaces.RelayClient
	EventHandler     = interfaces.EventHandler
	Emitter          = interfaces.Emitter
	Transport        = interfaces.Transport
	TransportFactory = interfaces.TransportFactory
)

// Re-exported constants.
const (
	AuthRequestMessage  = types.AuthRequestMessage
	EventConnect        = types.EventConnect
	EventDisconnect     = types.EventDisconnect
	EventError          = types.EventError
	EventInvite         = types.EventInvite
	EventUninvite       = types.EventUninvite
	CommandSendInvite   = types.CommandSendInvite
	CommandRemoveInvite = types.CommandRemoveInvite
)
