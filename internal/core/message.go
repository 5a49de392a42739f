package core

import "github.com/vovakirdan/wirechat-client/internal/proto"

// MessageKind tells chat lines from notices.
type MessageKind int

const (
	// MessageChat is a line typed by a user.
	MessageChat MessageKind = iota
	// MessageSystem is a notice from the server or the client itself.
	MessageSystem
)

func (k MessageKind) String() string {
	switch k {
	case MessageChat:
		return "chat"
	case MessageSystem:
		return "system"
	default:
		return "unknown"
	}
}

// Notices the session appends on its own.
const (
	NoticeDisconnected = "Disconnected from server"
	NoticeConnectError = "Error connecting to server"
)

// Message is one entry of the session log. Entries are never modified after they are appended.
type Message struct {
	Kind   MessageKind
	Sender string
	Text   string
}

// Render returns the line as it should be displayed.
func (m Message) Render() string {
	if m.Kind == MessageSystem {
		return "* " + m.Text
	}
	return m.Sender + ": " + m.Text
}

func chatMessage(sender, text string) Message {
	return Message{Kind: MessageChat, Sender: sender, Text: text}
}

func systemMessage(text string) Message {
	return Message{Kind: MessageSystem, Sender: proto.SystemSender, Text: text}
}
