package core

// Error codes for client-side validation and lifecycle errors.
const (
	ErrCodeUsernameRequired = "username_required"
	ErrCodeRoomRequired     = "room_required"
	ErrCodeEmptyMessage     = "empty_message"
	ErrCodeNotJoined        = "not_joined"
	ErrCodeSessionClosed    = "session_closed"
	ErrCodeBadServerURL     = "bad_server_url"
)

var (
	ErrUsernameRequired = clientError(ErrCodeUsernameRequired, "please enter a username")
	ErrRoomRequired     = clientError(ErrCodeRoomRequired, "please select a chatroom")
	ErrEmptyMessage     = clientError(ErrCodeEmptyMessage, "message is empty")
	ErrNotJoined        = clientError(ErrCodeNotJoined, "not connected to a chatroom")
	ErrSessionClosed    = clientError(ErrCodeSessionClosed, "session is shut down")
	ErrBadServerURL     = clientError(ErrCodeBadServerURL, "invalid server url")
)

// ClientError wraps a code and human-readable message.
// The message is meant to be shown to the user as-is.
type ClientError struct {
	Code    string
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

func clientError(code, msg string) *ClientError {
	return &ClientError{Code: code, Message: msg}
}
