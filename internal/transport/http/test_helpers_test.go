package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

func testServerConfig() config.ServerConfig {
	cfg := config.DefaultServer()
	cfg.Addr = ":0"
	cfg.JWTSecret = "test-secret"
	cfg.Seed = false
	return cfg
}

// startTestServer serves a fresh dev server on httptest.
func startTestServer(t *testing.T, cfg config.ServerConfig) (*Server, *httptest.Server) {
	t.Helper()

	disabledLogger := zerolog.Nop()
	authService := auth.NewService(auth.NewMemoryStore(), &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	})

	server := NewServer(authService, cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	return server, ts
}

func postJSON(t *testing.T, handler http.Handler, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func get(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

// loginToken registers and logs in a user, returning the raw token.
func loginToken(t *testing.T, handler http.Handler, username string) string {
	t.Helper()

	creds := CredentialsRequest{Username: username, Password: "password123"}
	if resp := postJSON(t, handler, "/api/register", "", creds); resp.Code != http.StatusOK {
		t.Fatalf("register %s: %d %s", username, resp.Code, resp.Body.String())
	}
	resp := postJSON(t, handler, "/api/login", "", creds)
	if resp.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", username, resp.Code, resp.Body.String())
	}
	var login LoginResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return login.Token
}

func wsURL(ts *httptest.Server, roomID string) string {
	u := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	if roomID != "" {
		u += "?roomId=" + roomID
	}
	return u
}

// dialMember connects and sends the init envelope for name.
func dialMember(ctx context.Context, t *testing.T, url, name string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", name, err)
	}
	t.Cleanup(func() { conn.CloseNow() })

	if err := wsjson.Write(ctx, conn, proto.NewInit(name)); err != nil {
		t.Fatalf("init %s: %v", name, err)
	}
	return conn
}

func readEnvelope(ctx context.Context, t *testing.T, conn *websocket.Conn) proto.Envelope {
	t.Helper()

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var env proto.Envelope
	if err := wsjson.Read(readCtx, conn, &env); err != nil {
		t.Fatalf("read envelope: %v", err)
	}
	return env
}

// readUntil skips envelopes until one of type typ arrives.
func readUntil(ctx context.Context, t *testing.T, conn *websocket.Conn, typ string) proto.Envelope {
	t.Helper()

	for range 20 {
		if env := readEnvelope(ctx, t, conn); env.Type == typ {
			return env
		}
	}
	t.Fatalf("no %s envelope received", typ)
	return proto.Envelope{}
}
