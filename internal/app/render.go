package app

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/vovakirdan/wirechat-client/internal/api"
	"github.com/vovakirdan/wirechat-client/internal/core"
)

// Renderer prints session snapshots as a scrolling transcript.
// Lines from different goroutines never interleave.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	colors bool
	self   string

	printed int
	status  core.Status
	room    string
}

// NewRenderer writes to out; colors toggles ANSI styling.
func NewRenderer(out io.Writer, colors bool) *Renderer {
	return &Renderer{out: out, colors: colors}
}

// Render prints what changed between the last snapshot and st.
// The message log is append-only, so only the tail is printed; a shorter log
// means a new session started and it is printed from the top.
func (r *Renderer) Render(st core.State) {
	if st.Username != "" {
		r.self = st.Username
	}
	if st.Status != r.status || st.RoomID != r.room {
		r.line(r.paint(color.FgGray, "-- "+describe(st)+" --"))
		r.status = st.Status
		r.room = st.RoomID
	}
	if len(st.Messages) < r.printed {
		r.printed = 0
	}
	for _, m := range st.Messages[r.printed:] {
		r.line(r.message(m))
	}
	r.printed = len(st.Messages)
}

// Users prints the roster.
func (r *Renderer) Users(users []string) {
	if len(users) == 0 {
		r.line(r.paint(color.FgGray, "no one is online"))
		return
	}
	r.line(r.paint(color.FgGray, fmt.Sprintf("online (%d): %s", len(users), strings.Join(users, ", "))))
}

// Error prints a user-facing error.
func (r *Renderer) Error(err error) {
	r.line(r.paint(color.FgRed, "! "+err.Error()))
}

func (r *Renderer) message(m core.Message) string {
	if m.Kind == core.MessageSystem {
		return r.paint(color.FgYellow, m.Render())
	}
	sender := color.FgCyan
	if m.Sender == r.self {
		sender = color.FgGreen
	}
	return r.paint(sender, m.Sender) + ": " + m.Text
}

func (r *Renderer) paint(c color.Color, s string) string {
	if !r.colors {
		return s
	}
	return c.Render(s)
}

func (r *Renderer) line(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.out, s)
}

func describe(st core.State) string {
	room := st.RoomID
	if room == "" {
		room = "lobby"
	}
	switch st.Status {
	case core.StatusConnecting:
		return fmt.Sprintf("connecting to %s as %s", room, st.Username)
	case core.StatusJoined:
		return fmt.Sprintf("joined %s as %s", room, st.Username)
	default:
		if st.Reconnecting {
			return "disconnected, retrying"
		}
		return "disconnected"
	}
}

// RenderRooms prints rooms as a table.
func RenderRooms(out io.Writer, rooms []api.Chatroom) {
	if len(rooms) == 0 {
		fmt.Fprintln(out, "no chatrooms")
		return
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"ID", "Name", "Description", "Users", "Created"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, room := range rooms {
		table.Append([]string{room.ID, room.Name, room.Description, fmt.Sprint(room.UserCount), room.CreatedAt})
	}
	table.Render()
}
