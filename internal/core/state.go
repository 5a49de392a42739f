package core

// Status is the lifecycle position of a session.
type Status int

const (
	// StatusDisconnected means no connection is held. Initial state, and the state after any close.
	StatusDisconnected Status = iota
	// StatusConnecting means a connection is being opened.
	StatusConnecting
	// StatusJoined means the init handshake went out and chat traffic flows.
	StatusJoined
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusJoined:
		return "joined"
	default:
		return "unknown"
	}
}

// State is an immutable snapshot of everything a renderer needs.
type State struct {
	Status   Status
	Username string
	RoomID   string
	Messages []Message
	Users    []string
	// Reconnecting is true while a retry timer is armed.
	Reconnecting bool
}
