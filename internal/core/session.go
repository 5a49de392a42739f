package core

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/presence"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/reconnect"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

const updatesBuffer = 16

// Options configure a Session.
type Options struct {
	// ServerURL is the WebSocket endpoint, e.g. ws://localhost:8080/ws.
	ServerURL string
	// Token is sent as a bearer Authorization header when non-empty.
	Token string
	// RequireRoom rejects joins without a room (multi-room servers).
	RequireRoom bool

	Dialer ws.Dialer
	Policy *reconnect.Policy
	Logger *zerolog.Logger
}

// Session is the client side of one chat membership: connection lifecycle,
// message log and presence roster.
//
// All state is owned by the Run loop. Public methods, connection hooks and
// retry timers only enqueue work for it, so nothing here needs a lock.
type Session struct {
	serverURL   string
	token       string
	requireRoom bool
	dialer      ws.Dialer
	policy      *reconnect.Policy
	log         *zerolog.Logger

	queue   chan func()
	done    chan struct{}
	updates chan State

	// loop-owned
	status   Status
	username string
	roomID   string
	conn     ws.Conn
	connID   string
	retry    *reconnect.Pending
	messages []Message
	presence *presence.Tracker
}

// NewSession builds a session. Run must be started before any other method is used.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	policy := opts.Policy
	if policy == nil {
		policy = reconnect.New(reconnect.DefaultDelay, nil)
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = ws.NewDialer(ws.Options{}, logger)
	}

	return &Session{
		serverURL:   opts.ServerURL,
		token:       opts.Token,
		requireRoom: opts.RequireRoom,
		dialer:      dialer,
		policy:      policy,
		log:         logger,
		queue:       make(chan func()),
		done:        make(chan struct{}),
		updates:     make(chan State, updatesBuffer),
		status:      StatusDisconnected,
		presence:    presence.NewTracker(),
	}
}

// Run processes session work until ctx is cancelled, then drops the
// connection and any pending retry. Updates is closed on return.
func (s *Session) Run(ctx context.Context) {
	defer close(s.updates)
	defer close(s.done)

	for {
		select {
		case fn := <-s.queue:
			fn()
		case <-ctx.Done():
			s.discardConnection()
			s.log.Debug().Msg("session loop stopped")
			return
		}
	}
}

// Updates delivers a snapshot after every state change. Slow readers lose the
// oldest snapshots, never the newest.
func (s *Session) Updates() <-chan State {
	return s.updates
}

// Join opens a connection for username (and roomID, when given) and replaces
// any previous connection. Validation failures return before anything changes.
func (s *Session) Join(ctx context.Context, username, roomID string) error {
	username = strings.TrimSpace(username)
	roomID = strings.TrimSpace(roomID)
	if username == "" {
		return ErrUsernameRequired
	}
	if s.requireRoom && roomID == "" {
		return ErrRoomRequired
	}
	if _, err := s.endpoint(roomID); err != nil {
		return err
	}

	return s.call(ctx, func() error {
		s.discardConnection()
		s.messages = nil
		s.presence.Reset()
		s.username = username
		s.roomID = roomID
		s.connect()
		s.publish()
		return nil
	})
}

// SendChatMessage sends text to the room. Blank text and sends outside the
// joined state are rejected without touching the network.
func (s *Session) SendChatMessage(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	return s.call(ctx, func() error {
		if s.status != StatusJoined || s.conn == nil || s.conn.State() != ws.StateOpen {
			return ErrNotJoined
		}
		if !s.send(proto.NewChat(s.username, text)) {
			return ErrNotJoined
		}
		return nil
	})
}

// Leave ends the session on purpose: it cancels any pending retry, closes the
// connection and clears the log and roster. Calling it again does nothing.
func (s *Session) Leave(ctx context.Context) error {
	return s.call(ctx, func() error {
		if s.idle() {
			return nil
		}
		s.log.Info().Str("user", s.username).Str("room", s.roomID).Msg("leaving chat")
		s.discardConnection()
		s.messages = nil
		s.presence.Reset()
		s.username = ""
		s.roomID = ""
		s.publish()
		return nil
	})
}

// State returns the current snapshot.
func (s *Session) State(ctx context.Context) (State, error) {
	var st State
	err := s.call(ctx, func() error {
		st = s.snapshot()
		return nil
	})
	return st, err
}

// call runs fn on the loop and waits for its result.
func (s *Session) call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	op := func() { result <- fn() }

	select {
	case s.queue <- op:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// the queue is unbuffered, so op is already running
	return <-result
}

// post hands fn to the loop from another goroutine. Work posted after Run
// returned is dropped.
func (s *Session) post(fn func()) {
	select {
	case s.queue <- fn:
	case <-s.done:
	}
}

func (s *Session) idle() bool {
	return s.status == StatusDisconnected && s.conn == nil && s.retry == nil &&
		s.username == "" && len(s.messages) == 0 && s.presence.Len() == 0
}

// connect dials for the remembered username/room. Loop only.
func (s *Session) connect() {
	target, err := s.endpoint(s.roomID)
	if err != nil {
		// validated in Join; only reachable if the URL changed underneath
		s.log.Error().Err(err).Msg("cannot build endpoint")
		return
	}

	var id string
	hooks := ws.Hooks{
		OnOpen:    func() { s.post(func() { s.handleOpen(id) }) },
		OnMessage: func(raw []byte) { s.post(func() { s.handleMessage(id, raw) }) },
		OnError:   func(err error) { s.post(func() { s.handleError(id, err) }) },
		OnClose:   func(err error) { s.post(func() { s.handleClose(id, err) }) },
	}
	conn := s.dialer.Dial(target, s.header(), hooks)
	// hooks read id on the loop, after this assignment
	id = conn.ID()

	s.conn = conn
	s.connID = id
	s.status = StatusConnecting
	s.log.Info().Str("conn_id", id).Str("user", s.username).Str("room", s.roomID).Msg("connecting")
}

// discardConnection forgets the current connection identity first, so that
// its late hooks and any armed retry are recognised as stale, then closes it.
func (s *Session) discardConnection() {
	s.connID = ""
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	if s.conn != nil {
		old := s.conn
		s.conn = nil
		old.Close()
	}
	s.status = StatusDisconnected
}

func (s *Session) send(env proto.Envelope) bool {
	if s.conn == nil {
		return false
	}
	data, err := proto.Encode(env)
	if err != nil {
		s.log.Error().Err(err).Str("type", env.Type).Msg("encode outbound")
		return false
	}
	return s.conn.Send(data)
}

func (s *Session) endpoint(roomID string) (string, error) {
	u, err := url.Parse(s.serverURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrBadServerURL, s.serverURL)
	}
	if roomID != "" {
		q := u.Query()
		q.Set("roomId", roomID)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (s *Session) header() http.Header {
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}
	return header
}

func (s *Session) snapshot() State {
	messages := make([]Message, len(s.messages))
	copy(messages, s.messages)
	return State{
		Status:       s.status,
		Username:     s.username,
		RoomID:       s.roomID,
		Messages:     messages,
		Users:        s.presence.Users(),
		Reconnecting: s.retry != nil,
	}
}

// publish pushes a snapshot, evicting the oldest one if the buffer is full.
// The loop is the only sender, so the second attempt cannot lose a race.
func (s *Session) publish() {
	st := s.snapshot()
	select {
	case s.updates <- st:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- st:
	default:
	}
}

func (s *Session) appendMessage(m Message) {
	s.messages = append(s.messages, m)
}
