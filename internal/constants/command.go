package constants

// Command tokens sent by the control panel.
const (
	CommandForward  = "forward"
	CommandBackward = "backward"
	CommandLeft     = "left"
	CommandRight    = "right"
	CommandStop     = "stop"
)

// Commands lists the known command tokens in panel order.
var Commands = []string{CommandForward, CommandLeft, CommandStop, CommandRight, CommandBackward}

// AddressUnavailable replaces the local address when discovery fails.
const AddressUnavailable = "unavailable"

// LastCommandNone is shown when the store holds no records or refuses the lookup.
const LastCommandNone = "none"

// LastCommandError is shown when the store is unreachable or its answer unreadable.
const LastCommandError = "error fetching last record"

// DeleteConfirmation is the fixed body the relay returns for a successful delete.
const DeleteConfirmation = "record has been deleted"

// Monitor sources.
const (
	SourceRemote = "remote"
	SourceRelay  = "relay"
)
