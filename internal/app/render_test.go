package app

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vovakirdan/wirechat-client/internal/api"
	"github.com/vovakirdan/wirechat-client/internal/core"
)

func lines(buf *bytes.Buffer) []string {
	out := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	buf.Reset()
	return out
}

func TestRendererPrintsOnlyNewMessages(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	st := core.State{Status: core.StatusConnecting, Username: "alice", RoomID: "1"}
	r.Render(st)
	assert.Equal(t, []string{"-- connecting to 1 as alice --"}, lines(&buf))

	st.Status = core.StatusJoined
	st.Messages = []core.Message{
		{Kind: core.MessageSystem, Text: "alice has joined the chat"},
		{Kind: core.MessageChat, Sender: "bob", Text: "hi"},
	}
	r.Render(st)
	assert.Equal(t, []string{
		"-- joined 1 as alice --",
		"* alice has joined the chat",
		"bob: hi",
	}, lines(&buf))

	st.Messages = append(st.Messages, core.Message{Kind: core.MessageChat, Sender: "alice", Text: "hey"})
	r.Render(st)
	assert.Equal(t, []string{"alice: hey"}, lines(&buf))

	// a fresh join starts an empty log
	r.Render(core.State{Status: core.StatusJoined, Username: "alice", RoomID: "2",
		Messages: []core.Message{{Kind: core.MessageChat, Sender: "carol", Text: "welcome"}}})
	assert.Equal(t, []string{"-- joined 2 as alice --", "carol: welcome"}, lines(&buf))
}

func TestRendererDescribesReconnect(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	r.Render(core.State{Status: core.StatusJoined, Username: "alice"})
	r.Render(core.State{Status: core.StatusDisconnected, Username: "alice", Reconnecting: true})
	assert.Equal(t, []string{"-- joined lobby as alice --", "-- disconnected, retrying --"}, lines(&buf))
}

func TestRendererUsersAndErrors(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, false)

	r.Users(nil)
	r.Users([]string{"alice", "bob"})
	r.Error(core.ErrNotJoined)
	assert.Equal(t, []string{
		"no one is online",
		"online (2): alice, bob",
		"! not connected to a chatroom",
	}, lines(&buf))
}

func TestRendererColors(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, true)

	r.Render(core.State{Status: core.StatusJoined, Username: "alice",
		Messages: []core.Message{{Kind: core.MessageChat, Sender: "alice", Text: "hi"}}})
	// escape codes depend on terminal detection; the text is always there
	assert.Contains(t, buf.String(), "alice")
	assert.Contains(t, buf.String(), ": hi")
}

func TestRenderRooms(t *testing.T) {
	var buf bytes.Buffer
	RenderRooms(&buf, nil)
	assert.Equal(t, "no chatrooms\n", buf.String())

	buf.Reset()
	RenderRooms(&buf, []api.Chatroom{
		{ID: "r-1", Name: "General Chat", Description: "everyone", UserCount: 3, CreatedAt: "2024-01-01T00:00:00Z"},
	})
	out := buf.String()
	assert.Contains(t, out, "General Chat")
	assert.Contains(t, out, "everyone")
	assert.Contains(t, out, "r-1")
}
