package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/config"
	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/reconnect"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

// ErrNoUsername is returned when neither config nor token name the user.
var ErrNoUsername = errors.New("no username: pass --username or log in first")

// ChatOptions configure an interactive chat run.
type ChatOptions struct {
	Config config.Config
	In     io.Reader
	Out    io.Writer
	Colors bool
	Logger *zerolog.Logger
	// Dialer overrides the WebSocket dialer.
	Dialer ws.Dialer
}

// ResolveIdentity picks the username and token for a chat run. Expired tokens
// and, unless the server takes raw tokens, unreadable ones are dropped with a
// warning. The username falls back to the token's claim.
func ResolveIdentity(cfg config.Config, logger *zerolog.Logger, now time.Time) (username, token string, err error) {
	username = strings.TrimSpace(cfg.Username)
	token = cfg.Token

	if token != "" {
		claims, err := auth.ParseUnverified(token, now)
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			logger.Warn().Msg("stored token has expired; run login again")
			token = ""
		case err != nil && cfg.RawAuthHeader:
			logger.Debug().Err(err).Msg("token is opaque, sending as is")
		case err != nil:
			logger.Warn().Err(err).Msg("ignoring unreadable token")
			token = ""
		case username == "":
			username = claims.Username
		}
	}

	if username == "" {
		return "", "", ErrNoUsername
	}
	return username, token, nil
}

// RunChat joins the configured room and bridges the terminal to the session
// until the input ends, /quit is entered or ctx is cancelled.
func RunChat(ctx context.Context, opts ChatOptions) error {
	cfg := opts.Config
	logger := opts.Logger

	username, token, err := ResolveIdentity(cfg, logger, time.Now())
	if err != nil {
		return err
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = ws.NewDialer(ws.Options{
			DialTimeout:     cfg.DialTimeout,
			WriteTimeout:    cfg.WriteTimeout,
			MaxMessageBytes: cfg.MaxMessageBytes,
		}, logger)
	}

	session := core.NewSession(core.Options{
		ServerURL:   cfg.ServerURL,
		Token:       token,
		RequireRoom: cfg.RequireRoom,
		Dialer:      dialer,
		Policy:      reconnect.New(cfg.ReconnectDelay, nil),
		Logger:      logger,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	loopDone := make(chan struct{})
	go func() {
		session.Run(runCtx)
		close(loopDone)
	}()

	renderer := NewRenderer(opts.Out, opts.Colors)
	renderDone := make(chan struct{})
	go func() {
		for st := range session.Updates() {
			renderer.Render(st)
		}
		close(renderDone)
	}()

	defer func() {
		cancel()
		<-loopDone
		<-renderDone
	}()

	if err := session.Join(runCtx, username, cfg.Room); err != nil {
		return err
	}

	term := &terminal{session: session, renderer: renderer, username: username}
	lines := readLines(runCtx, opts.In)
	for {
		select {
		case <-runCtx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return session.Leave(runCtx)
			}
			quit, err := term.handle(runCtx, line)
			if err != nil {
				var clientErr *core.ClientError
				if !errors.As(err, &clientErr) {
					return err
				}
				renderer.Error(clientErr)
			}
			if quit {
				return session.Leave(runCtx)
			}
		}
	}
}

// terminal maps typed lines to session operations.
type terminal struct {
	session  *core.Session
	renderer *Renderer
	username string
}

func (t *terminal) handle(ctx context.Context, line string) (quit bool, err error) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return false, t.session.SendChatMessage(ctx, line)
	}

	cmd, arg, _ := strings.Cut(trimmed, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/leave":
		return false, t.session.Leave(ctx)
	case "/join":
		return false, t.session.Join(ctx, t.username, arg)
	case "/users":
		st, err := t.session.State(ctx)
		if err != nil {
			return false, err
		}
		t.renderer.Users(st.Users)
		return false, nil
	case "/help":
		t.renderer.line("commands: /join <room>, /leave, /users, /quit")
		return false, nil
	default:
		t.renderer.Error(fmt.Errorf("unknown command %s (try /help)", cmd))
		return false, nil
	}
}

// readLines feeds scanned lines into a channel that closes at EOF.
func readLines(ctx context.Context, in io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
