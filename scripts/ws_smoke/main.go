// Command ws_smoke joins a room, sends one line and waits for the server
// to echo it back. It exits non-zero if that does not happen in time.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/reconnect"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ws_smoke: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "tester", "username to join with")
	room := flag.String("room", "", "room id, empty for the lobby")
	token := flag.String("token", "", "bearer token for servers that require one")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger := log.New(*level)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	session := core.NewSession(core.Options{
		ServerURL: *addr,
		Token:     *token,
		Dialer:    ws.NewDialer(ws.Options{DialTimeout: *timeout, WriteTimeout: time.Second}, logger),
		Policy:    reconnect.New(time.Second, nil),
		Logger:    logger,
	})
	go session.Run(ctx)

	if err := session.Join(ctx, *user, *room); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	sent := false
	for st := range session.Updates() {
		for _, m := range st.Messages {
			if m.Kind == core.MessageSystem && m.Text == core.NoticeConnectError {
				return errors.New("could not connect to " + *addr)
			}
			if sent && m.Kind == core.MessageChat && m.Sender == *user && m.Text == *text {
				fmt.Printf("ok: %d online, echo received\n", len(st.Users))
				return session.Leave(ctx)
			}
		}
		if !sent && st.Status == core.StatusJoined {
			if err := session.SendChatMessage(ctx, *text); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			sent = true
		}
	}
	return fmt.Errorf("no echo within %s", *timeout)
}
