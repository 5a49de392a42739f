package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/reconnect"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

// fakeConn never calls its hooks on its own. Tests drive them from the test
// goroutine so the session loop is never re-entered.
type fakeConn struct {
	id     string
	url    string
	header http.Header
	hooks  ws.Hooks

	mu     sync.Mutex
	state  ws.State
	sent   [][]byte
	closes int
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) State() ws.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeConn) Send(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ws.StateOpen {
		return false
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	return true
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	if c.state != ws.StateClosed {
		c.state = ws.StateClosing
	}
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *fakeConn) setState(st ws.State) {
	c.mu.Lock()
	c.state = st
	c.mu.Unlock()
}

func (c *fakeConn) open() {
	c.setState(ws.StateOpen)
	c.hooks.OnOpen()
}

func (c *fakeConn) deliverRaw(raw string) {
	c.hooks.OnMessage([]byte(raw))
}

func (c *fakeConn) deliver(t testing.TB, env proto.Envelope) {
	t.Helper()
	data, err := proto.Encode(env)
	require.NoError(t, err)
	c.hooks.OnMessage(data)
}

func (c *fakeConn) fail(err error) {
	c.hooks.OnError(err)
}

// drop simulates the connection going away: error first when err is set, then close.
func (c *fakeConn) drop(err error) {
	c.setState(ws.StateClosed)
	if err != nil {
		c.hooks.OnError(err)
	}
	c.hooks.OnClose(err)
}

func (c *fakeConn) sentEnvelopes(t testing.TB) []proto.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]proto.Envelope, 0, len(c.sent))
	for _, raw := range c.sent {
		out = append(out, decodeEnvelope(t, raw))
	}
	return out
}

type fakeDialer struct {
	mu     sync.Mutex
	conns  []*fakeConn
	dialed chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{dialed: make(chan *fakeConn, 32)}
}

func (d *fakeDialer) Dial(url string, header http.Header, hooks ws.Hooks) ws.Conn {
	d.mu.Lock()
	c := &fakeConn{
		id:     fmt.Sprintf("conn-%d", len(d.conns)+1),
		url:    url,
		header: header.Clone(),
		hooks:  hooks,
		state:  ws.StateConnecting,
	}
	d.conns = append(d.conns, c)
	d.mu.Unlock()

	d.dialed <- c
	return c
}

func (d *fakeDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns)
}

// nextDial waits for the next dial, which may come from a timer goroutine.
func (d *fakeDialer) nextDial(t testing.TB) *fakeConn {
	t.Helper()
	select {
	case c := <-d.dialed:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a dial")
		return nil
	}
}

func (d *fakeDialer) noDial(t testing.TB) {
	t.Helper()
	select {
	case c := <-d.dialed:
		t.Fatalf("unexpected dial to %s", c.url)
	case <-time.After(50 * time.Millisecond):
	}
}

type harness struct {
	session *Session
	dialer  *fakeDialer
	clock   *clock.Mock
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

func newHarness(t testing.TB, configure ...func(*Options)) *harness {
	t.Helper()

	h := &harness{
		dialer:  newFakeDialer(),
		clock:   clock.NewMock(),
		stopped: make(chan struct{}),
	}
	opts := Options{
		ServerURL: "ws://chat.test/ws",
		Dialer:    h.dialer,
		Policy:    reconnect.New(reconnect.DefaultDelay, h.clock),
	}
	for _, fn := range configure {
		fn(&opts)
	}
	h.session = NewSession(opts)

	h.ctx, h.cancel = context.WithCancel(context.Background())
	go func() {
		h.session.Run(h.ctx)
		close(h.stopped)
	}()
	t.Cleanup(func() {
		h.cancel()
		<-h.stopped
	})
	return h
}

// join joins as alice in room 1 and returns the dialed connection, not yet open.
func (h *harness) join(t testing.TB) *fakeConn {
	t.Helper()
	require.NoError(t, h.session.Join(h.ctx, "alice", "1"))
	return h.dialer.nextDial(t)
}

// joined joins and opens the connection.
func (h *harness) joined(t testing.TB) *fakeConn {
	t.Helper()
	c := h.join(t)
	c.open()
	st := h.state(t)
	require.Equal(t, StatusJoined, st.Status)
	return c
}

// state also acts as a barrier: everything posted earlier has run.
func (h *harness) state(t testing.TB) State {
	t.Helper()
	st, err := h.session.State(h.ctx)
	require.NoError(t, err)
	return st
}

func (h *harness) advance(d time.Duration) {
	h.clock.Add(d)
}

func decodeEnvelope(t testing.TB, raw []byte) proto.Envelope {
	t.Helper()
	var env proto.Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func texts(messages []Message) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Render())
	}
	return out
}
