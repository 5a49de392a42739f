// Package ws owns the single physical WebSocket connection of a chat session.
//
// A connection is started with Dialer.Dial, which returns at once. Everything
// that happens afterwards is reported through Hooks, invoked from the
// connection's own goroutine.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/utils"
)

// State is the ready sub-state of a connection.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Hooks receive connection events. Any of them may be nil.
// OnClose is called exactly once per connection and is always the last hook.
type Hooks struct {
	OnOpen    func()
	OnMessage func(raw []byte)
	OnClose   func(err error)
	OnError   func(err error)
}

// Conn is one live connection attempt.
type Conn interface {
	// ID identifies this connection instance.
	ID() string
	State() State
	// Send transmits data only while open; otherwise it does nothing and returns false.
	Send(data []byte) bool
	// Close requests termination. It never blocks and may be called repeatedly.
	Close()
}

// Dialer opens connections.
type Dialer interface {
	Dial(url string, header http.Header, hooks Hooks) Conn
}

// Options tune the WebSocket dialer.
type Options struct {
	DialTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxMessageBytes int64
}

// WebSocketDialer dials real WebSocket servers.
type WebSocketDialer struct {
	opts Options
	log  *zerolog.Logger
}

// NewDialer builds a dialer; zero options get sane defaults.
func NewDialer(opts Options, logger *zerolog.Logger) *WebSocketDialer {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.MaxMessageBytes <= 0 {
		opts.MaxMessageBytes = 1 << 20
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &WebSocketDialer{opts: opts, log: logger}
}

// Dial starts connecting to url in the background and returns the handle immediately.
func (d *WebSocketDialer) Dial(url string, header http.Header, hooks Hooks) Conn {
	ctx, cancel := context.WithCancel(context.Background())
	s := &socket{
		id:     utils.NewID(),
		opts:   d.opts,
		hooks:  hooks,
		state:  StateConnecting,
		ctx:    ctx,
		cancel: cancel,
	}
	logger := d.log.With().Str("conn_id", s.id).Logger()
	s.log = &logger

	go s.run(url, header)
	return s
}

type socket struct {
	id    string
	opts  Options
	log   *zerolog.Logger
	hooks Hooks

	mu    sync.Mutex
	state State
	conn  *websocket.Conn

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (s *socket) ID() string {
	return s.id
}

func (s *socket) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *socket) Send(data []byte) bool {
	s.mu.Lock()
	conn, state := s.conn, s.state
	s.mu.Unlock()

	if state != StateOpen || conn == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.opts.WriteTimeout)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		s.log.Warn().Err(err).Msg("ws write failed")
		return false
	}
	return true
}

func (s *socket) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		if s.state != StateClosed {
			s.state = StateClosing
		}
		s.mu.Unlock()

		if conn == nil {
			// still dialing: abort the handshake
			s.cancel()
			return
		}
		go func() {
			if err := conn.Close(websocket.StatusNormalClosure, "leaving"); err != nil {
				s.log.Debug().Err(err).Msg("ws close handshake")
			}
			s.cancel()
		}()
	})
}

func (s *socket) run(url string, header http.Header) {
	dialCtx, cancelDial := context.WithTimeout(s.ctx, s.opts.DialTimeout)
	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{HTTPHeader: header})
	cancelDial()
	if err != nil {
		s.setState(StateClosed)
		if s.ctx.Err() == nil {
			s.log.Warn().Err(err).Str("url", url).Msg("ws dial failed")
			s.hooks.error(fmt.Errorf("dial: %w", err))
		}
		s.hooks.close(err)
		return
	}
	conn.SetReadLimit(s.opts.MaxMessageBytes)

	s.mu.Lock()
	if s.state != StateConnecting {
		s.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "closed before open")
		s.setState(StateClosed)
		s.hooks.close(nil)
		return
	}
	s.conn = conn
	s.state = StateOpen
	s.mu.Unlock()

	s.log.Debug().Str("url", url).Msg("ws connected")
	s.hooks.open()

	err = s.readLoop(conn)
	requested := s.State() == StateClosing || s.ctx.Err() != nil
	s.setState(StateClosed)
	s.cancel()

	if requested || isNormalClose(err) {
		s.log.Debug().Msg("ws closed")
		s.hooks.close(nil)
		return
	}
	s.log.Warn().Err(err).Msg("ws connection closed with error")
	s.hooks.error(err)
	s.hooks.close(err)
}

func (s *socket) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(s.ctx)
		if err != nil {
			return err
		}
		s.hooks.message(data)
	}
}

func (s *socket) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func isNormalClose(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

func (h Hooks) open() {
	if h.OnOpen != nil {
		h.OnOpen()
	}
}

func (h Hooks) message(raw []byte) {
	if h.OnMessage != nil {
		h.OnMessage(raw)
	}
}

func (h Hooks) close(err error) {
	if h.OnClose != nil {
		h.OnClose(err)
	}
}

func (h Hooks) error(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}
