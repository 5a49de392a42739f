package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

func TestHealthEndpoint(t *testing.T) {
	_, ts := startTestServer(t, testServerConfig())

	resp, err := ts.Client().Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
}

func TestWebSocketJoinAnnouncesAndSendsRoster(t *testing.T) {
	_, ts := startTestServer(t, testServerConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialMember(ctx, t, wsURL(ts, ""), "alice")
	if env := readEnvelope(ctx, t, alice); env.Type != proto.TypeUserJoined || env.Content != "alice has joined the chat" {
		t.Fatalf("unexpected first envelope: %+v", env)
	}
	if env := readEnvelope(ctx, t, alice); env.Type != proto.TypeUserList || env.Content != `["alice"]` {
		t.Fatalf("unexpected roster: %+v", env)
	}

	bob := dialMember(ctx, t, wsURL(ts, ""), "bob")
	if env := readEnvelope(ctx, t, alice); env.Type != proto.TypeUserJoined || env.Content != "bob has joined the chat" {
		t.Fatalf("alice did not see bob join: %+v", env)
	}
	roster := readUntil(ctx, t, bob, proto.TypeUserList)
	if roster.Content != `["alice","bob"]` || roster.Sender != proto.SystemSender {
		t.Fatalf("unexpected roster for bob: %+v", roster)
	}
}

func TestWebSocketChatUsesMemberName(t *testing.T) {
	_, ts := startTestServer(t, testServerConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialMember(ctx, t, wsURL(ts, ""), "alice")
	readUntil(ctx, t, alice, proto.TypeUserList)
	bob := dialMember(ctx, t, wsURL(ts, ""), "bob")
	readUntil(ctx, t, bob, proto.TypeUserList)

	if err := wsjson.Write(ctx, alice, proto.NewChat("mallory", "hi there")); err != nil {
		t.Fatalf("write chat: %v", err)
	}

	env := readUntil(ctx, t, bob, proto.TypeChat)
	if env.Sender != "alice" || env.Content != "hi there" {
		t.Fatalf("unexpected chat: %+v", env)
	}
}

func TestWebSocketRefreshUserList(t *testing.T) {
	_, ts := startTestServer(t, testServerConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialMember(ctx, t, wsURL(ts, ""), "alice")
	readUntil(ctx, t, alice, proto.TypeUserList)

	if err := wsjson.Write(ctx, alice, proto.NewRefreshUserList("alice")); err != nil {
		t.Fatalf("write refresh: %v", err)
	}
	if env := readEnvelope(ctx, t, alice); env.Type != proto.TypeUserList || env.Content != `["alice"]` {
		t.Fatalf("unexpected refresh answer: %+v", env)
	}
}

func TestWebSocketLeaveIsAnnounced(t *testing.T) {
	_, ts := startTestServer(t, testServerConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialMember(ctx, t, wsURL(ts, ""), "alice")
	readUntil(ctx, t, alice, proto.TypeUserList)
	bob := dialMember(ctx, t, wsURL(ts, ""), "bob")
	readUntil(ctx, t, alice, proto.TypeUserJoined)

	bob.Close(websocket.StatusNormalClosure, "bye")

	env := readUntil(ctx, t, alice, proto.TypeUserLeft)
	if env.Content != "bob has left the chat" {
		t.Fatalf("unexpected leave notice: %+v", env)
	}
}

func TestWebSocketRoomResolution(t *testing.T) {
	cfg := testServerConfig()
	cfg.RequireRoom = true
	server, ts := startTestServer(t, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(ts, ""), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without room, got err=%v resp=%v", err, resp)
	}

	_, resp, err = websocket.Dial(ctx, wsURL(ts, "ghost"), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown room, got err=%v resp=%v", err, resp)
	}

	room := server.Rooms().Create("Tech Talk", "", "u-1")
	alice := dialMember(ctx, t, wsURL(ts, room.ID), "alice")
	readUntil(ctx, t, alice, proto.TypeUserList)
	if users := room.Users(); len(users) != 1 || users[0] != "alice" {
		t.Fatalf("unexpected room members: %v", users)
	}
}

func TestWebSocketRequireToken(t *testing.T) {
	cfg := testServerConfig()
	cfg.RequireToken = true
	server, ts := startTestServer(t, cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(ts, ""), nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got err=%v resp=%v", err, resp)
	}

	token := loginToken(t, server.Handler, "alice")
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	conn, _, err := websocket.Dial(ctx, wsURL(ts, ""), &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		t.Fatalf("dial with token: %v", err)
	}
	defer conn.CloseNow()
}

func TestDisconnectAll(t *testing.T) {
	server, ts := startTestServer(t, testServerConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	alice := dialMember(ctx, t, wsURL(ts, ""), "alice")
	readUntil(ctx, t, alice, proto.TypeUserList)

	if n := server.DisconnectAll(); n != 1 {
		t.Fatalf("expected 1 dropped connection, got %d", n)
	}

	readCtx, readCancel := context.WithTimeout(ctx, 2*time.Second)
	defer readCancel()
	if _, _, err := alice.Read(readCtx); err == nil {
		t.Fatalf("expected read error after disconnect")
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Unix(0, 0)
	limiter := newRateLimiter(2, func() time.Time { return now })

	if !limiter.allow() || !limiter.allow() {
		t.Fatalf("first two frames should pass")
	}
	if limiter.allow() {
		t.Fatalf("third frame in the window should be limited")
	}

	now = now.Add(time.Minute)
	if !limiter.allow() {
		t.Fatalf("new window should reset the counter")
	}

	unlimited := newRateLimiter(0, time.Now)
	for range 1000 {
		if !unlimited.allow() {
			t.Fatalf("zero limit must not throttle")
		}
	}
}

func TestClientDialerJoinsThroughServerHandler(t *testing.T) {
	server, ts := startTestServer(t, testServerConfig())

	logger := zerolog.Nop()
	dialer := ws.NewDialer(ws.Options{DialTimeout: time.Second, WriteTimeout: time.Second}, &logger)

	opened := make(chan struct{}, 1)
	frames := make(chan []byte, 8)
	conn := dialer.Dial(wsURL(ts, ""), nil, ws.Hooks{
		OnOpen:    func() { opened <- struct{}{} },
		OnMessage: func(raw []byte) { frames <- raw },
	})
	t.Cleanup(conn.Close)

	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("connection never opened")
	}

	init, err := proto.Encode(proto.NewInit("alice"))
	if err != nil {
		t.Fatalf("encode init: %v", err)
	}
	if !conn.Send(init) {
		t.Fatal("send init on open connection failed")
	}

	select {
	case raw := <-frames:
		ev, err := proto.Decode(raw)
		if err != nil {
			t.Fatalf("decode first frame: %v", err)
		}
		joined, ok := ev.(proto.UserJoinedEvent)
		if !ok || joined.Notice != "alice has joined the chat" {
			t.Fatalf("unexpected first frame: %s", raw)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame after init")
	}

	if users := server.Rooms().Get(LobbyID).Users(); len(users) != 1 || users[0] != "alice" {
		t.Fatalf("lobby roster = %v, want [alice]", users)
	}
}
