package proto

import "encoding/json"

// Envelope is the single wire shape used in both directions.
type Envelope struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Sender  string `json:"sender"`
}

const (
	TypeInit            = "init"
	TypeChat            = "chat"
	TypeRefreshUserList = "refreshUserList"

	TypeUserList   = "userList"
	TypeUserJoined = "userJoined"
	TypeUserLeft   = "userLeft"

	// SystemSender is the sender name used for locally generated and server notices.
	SystemSender = "system"

	// InitContent is the free text carried by the join handshake.
	InitContent = "Joining chat"
)

// NewInit builds the envelope that registers username with the server.
func NewInit(username string) Envelope {
	return Envelope{Type: TypeInit, Content: InitContent, Sender: username}
}

// NewChat builds a chat envelope carrying text from username.
func NewChat(username, text string) Envelope {
	return Envelope{Type: TypeChat, Content: text, Sender: username}
}

// NewRefreshUserList asks the server to resend the presence snapshot.
func NewRefreshUserList(username string) Envelope {
	return Envelope{Type: TypeRefreshUserList, Content: "", Sender: username}
}

// NewUserList builds the roster snapshot a server sends. Content is the JSON
// array of names, as the wire format nests it inside a string.
func NewUserList(users []string) Envelope {
	if users == nil {
		users = []string{}
	}
	data, _ := json.Marshal(users) // a []string always marshals
	return Envelope{Type: TypeUserList, Content: string(data), Sender: SystemSender}
}
