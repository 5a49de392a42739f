package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/proto"
)

const initTimeout = 10 * time.Second

// WSHandler upgrades HTTP connections and attaches them to a room.
//
// The first frame a client sends must be its init envelope; its sender names
// the member for the rest of the connection.
type WSHandler struct {
	rooms       *Rooms
	authService *auth.Service
	cfg         config.ServerConfig
	log         *zerolog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(rooms *Rooms, authService *auth.Service, cfg config.ServerConfig, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		rooms:       rooms,
		authService: authService,
		cfg:         cfg,
		log:         logger,
		conns:       make(map[*websocket.Conn]struct{}),
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	roomID := r.URL.Query().Get("roomId")
	if roomID == "" {
		if h.cfg.RequireRoom {
			stdhttp.Error(w, "Room ID is required", stdhttp.StatusBadRequest)
			return
		}
		roomID = LobbyID
	}
	room := h.rooms.Get(roomID)
	if room == nil {
		stdhttp.Error(w, "Room not found", stdhttp.StatusNotFound)
		return
	}

	if h.cfg.RequireToken {
		if _, err := h.authService.ValidateToken(bearerToken(r.Header.Get("Authorization"))); err != nil {
			h.log.Debug().Err(err).Msg("ws handshake rejected")
			stdhttp.Error(w, "invalid token", stdhttp.StatusUnauthorized)
			return
		}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(h.cfg.MaxMessageBytes)

	h.track(conn)
	defer h.untrack(conn)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	initCtx, initCancel := context.WithTimeout(ctx, initTimeout)
	var init proto.Envelope
	err = wsjson.Read(initCtx, conn, &init)
	initCancel()
	if err != nil {
		h.log.Warn().Err(err).Msg("read init envelope")
		conn.Close(websocket.StatusPolicyViolation, "init expected")
		return
	}

	m := newMember(init.Sender)
	log := h.log.With().Str("room_id", room.ID).Str("member_id", m.id).Str("user", m.name).Logger()
	log.Info().Msg("member joined")

	room.join(m)
	defer func() {
		room.leave(m)
		log.Info().Msg("member left")
	}()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, room, m, &log)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, m, &log)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		if s := websocket.CloseStatus(err); s == websocket.StatusNormalClosure || s == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			status = websocket.StatusInternalError
			reason = "internal error"
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, room *Room, m *member, log *zerolog.Logger) error {
	limiter := newRateLimiter(h.cfg.MessagesPerMinute, time.Now)
	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			return err
		}

		if env.Type == proto.TypeRefreshUserList {
			room.sendUserList(m)
			continue
		}
		if !limiter.allow() {
			log.Debug().Str("type", env.Type).Msg("rate limited")
			continue
		}

		// clients cannot speak for someone else
		env.Sender = m.name
		room.Broadcast(env)
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, m *member, log *zerolog.Logger) error {
	for {
		select {
		case data := <-m.send:
			if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
				log.Error().Err(err).Msg("write ws frame")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// DisconnectAll drops every live connection without a close handshake and
// returns how many were dropped.
func (h *WSHandler) DisconnectAll() int {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.CloseNow()
	}
	return len(conns)
}

func (h *WSHandler) track(c *websocket.Conn) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	h.mu.Unlock()
}

func (h *WSHandler) untrack(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, c)
	h.mu.Unlock()
}

// bearerToken accepts both "Bearer <token>" and a bare token.
func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if scheme, token, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return header
}
