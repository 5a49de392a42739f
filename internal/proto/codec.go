package proto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedEnvelope is returned when a frame is not a JSON envelope.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrMalformedUserList is returned when a userList envelope carries unparsable content.
	ErrMalformedUserList = errors.New("malformed user list")
)

// Event is a decoded inbound envelope. The set of implementations is closed.
type Event interface {
	event()
}

// InitEvent acknowledges a join.
type InitEvent struct {
	Sender string
}

// UserListEvent carries a full presence snapshot in server order.
type UserListEvent struct {
	Users []string
}

// UserJoinedEvent is a human-readable notice that someone joined.
type UserJoinedEvent struct {
	Notice string
}

// UserLeftEvent is a human-readable notice that someone left.
type UserLeftEvent struct {
	Notice string
}

// ChatEvent is any envelope with an unrecognized type. Type keeps the raw tag.
type ChatEvent struct {
	Type   string
	Sender string
	Text   string
}

func (InitEvent) event()       {}
func (UserListEvent) event()   {}
func (UserJoinedEvent) event() {}
func (UserLeftEvent) event()   {}
func (ChatEvent) event()       {}

// Encode serializes an envelope as-is.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", env.Type, err)
	}
	return data, nil
}

// Decode parses one inbound frame into an Event.
func Decode(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	// json accepts a bare null into a struct without complaint.
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, fmt.Errorf("%w: null frame", ErrMalformedEnvelope)
	}
	return FromEnvelope(env)
}

// FromEnvelope maps an already parsed envelope to its Event.
func FromEnvelope(env Envelope) (Event, error) {
	switch env.Type {
	case TypeInit:
		return InitEvent{Sender: env.Sender}, nil
	case TypeUserList:
		var users []string
		if err := json.Unmarshal([]byte(env.Content), &users); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedUserList, err)
		}
		if users == nil {
			users = []string{}
		}
		return UserListEvent{Users: users}, nil
	case TypeUserJoined:
		return UserJoinedEvent{Notice: env.Content}, nil
	case TypeUserLeft:
		return UserLeftEvent{Notice: env.Content}, nil
	default:
		return ChatEvent{Type: env.Type, Sender: env.Sender, Text: env.Content}, nil
	}
}
