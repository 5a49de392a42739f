package http

import (
	"cmp"
	"slices"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/utils"
)

// LobbyID is the room used for handshakes without a roomId.
const LobbyID = "lobby"

const memberBuffer = 32

// ChatroomInfo describes a room in API responses.
type ChatroomInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UserCount   int    `json:"userCount"`
	CreatedAt   string `json:"createdAt"`
	CreatorID   string `json:"creatorId"`
}

// member is one WebSocket connection inside a room.
type member struct {
	id   string
	name string
	send chan []byte
}

func newMember(name string) *member {
	return &member{
		id:   utils.NewID(),
		name: name,
		send: make(chan []byte, memberBuffer),
	}
}

// Room groups members that see each other's messages.
type Room struct {
	ID          string
	Name        string
	Description string
	CreatorID   string
	createdAt   time.Time

	mu      sync.Mutex
	members map[string]*member
	order   []string
}

func newRoom(id, name, description, creatorID string) *Room {
	return &Room{
		ID:          id,
		Name:        name,
		Description: description,
		CreatorID:   creatorID,
		createdAt:   time.Now(),
		members:     make(map[string]*member),
	}
}

// Info returns the API view of the room.
func (r *Room) Info() ChatroomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	return ChatroomInfo{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		UserCount:   len(r.members),
		CreatedAt:   r.createdAt.Format(time.RFC3339),
		CreatorID:   r.CreatorID,
	}
}

// Users lists member names in join order. Duplicates are kept.
func (r *Room) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.usersLocked()
}

func (r *Room) usersLocked() []string {
	return lo.Map(r.order, func(id string, _ int) string { return r.members[id].name })
}

// join announces m to everyone, then sends m the roster.
func (r *Room) join(m *member) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.members[m.id] = m
	r.order = append(r.order, m.id)

	r.broadcastLocked(proto.Envelope{
		Type:    proto.TypeUserJoined,
		Content: m.name + " has joined the chat",
		Sender:  proto.SystemSender,
	})
	r.deliverLocked(m, r.userListLocked())
}

// leave removes m and announces it. Reports whether m was a member.
func (r *Room) leave(m *member) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.members[m.id]; !ok {
		return false
	}
	delete(r.members, m.id)
	r.order = slices.DeleteFunc(r.order, func(id string) bool { return id == m.id })

	r.broadcastLocked(proto.Envelope{
		Type:    proto.TypeUserLeft,
		Content: m.name + " has left the chat",
		Sender:  proto.SystemSender,
	})
	return true
}

// sendUserList answers a refreshUserList request.
func (r *Room) sendUserList(m *member) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliverLocked(m, r.userListLocked())
}

// Broadcast sends env to every member.
func (r *Room) Broadcast(env proto.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(env)
}

func (r *Room) userListLocked() proto.Envelope {
	return proto.NewUserList(r.usersLocked())
}

func (r *Room) broadcastLocked(env proto.Envelope) {
	data, err := proto.Encode(env)
	if err != nil {
		return
	}
	for _, id := range r.order {
		r.enqueue(r.members[id], data)
	}
}

func (r *Room) deliverLocked(m *member, env proto.Envelope) {
	data, err := proto.Encode(env)
	if err != nil {
		return
	}
	r.enqueue(m, data)
}

func (r *Room) enqueue(m *member, data []byte) {
	select {
	case m.send <- data:
	default:
		// Drop if slow consumer.
	}
}

// Rooms is the registry of live rooms.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRooms returns a registry holding only the lobby.
func NewRooms() *Rooms {
	rs := &Rooms{rooms: make(map[string]*Room)}
	rs.rooms[LobbyID] = newRoom(LobbyID, "Lobby", "Default room for clients without a room", proto.SystemSender)
	return rs
}

// Create registers a new room with a generated id.
func (rs *Rooms) Create(name, description, creatorID string) *Room {
	room := newRoom(utils.NewID(), name, description, creatorID)

	rs.mu.Lock()
	rs.rooms[room.ID] = room
	rs.mu.Unlock()
	return room
}

// Get returns the room or nil.
func (rs *Rooms) Get(id string) *Room {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.rooms[id]
}

// List returns every room except the lobby, oldest first.
func (rs *Rooms) List() []ChatroomInfo {
	return rs.list(func(r *Room) bool { return r.ID != LobbyID })
}

// ListByCreator returns rooms created by creatorID, oldest first.
func (rs *Rooms) ListByCreator(creatorID string) []ChatroomInfo {
	return rs.list(func(r *Room) bool { return r.ID != LobbyID && r.CreatorID == creatorID })
}

func (rs *Rooms) list(keep func(*Room) bool) []ChatroomInfo {
	rs.mu.RLock()
	rooms := lo.Filter(lo.Values(rs.rooms), func(r *Room, _ int) bool { return keep(r) })
	rs.mu.RUnlock()

	slices.SortFunc(rooms, func(a, b *Room) int {
		if c := a.createdAt.Compare(b.createdAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return lo.Map(rooms, func(r *Room, _ int) ChatroomInfo { return r.Info() })
}
