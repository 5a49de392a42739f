package app

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/config"
	transporthttp "github.com/vovakirdan/wirechat-client/internal/transport/http"
)

// ServerApp runs the local development chat server.
type ServerApp struct {
	server          *stdhttp.Server
	chat            *transporthttp.Server
	shutdownTimeout time.Duration
	seed            bool
	log             *zerolog.Logger
}

// NewServer constructs the dev server with an in-memory account store.
func NewServer(cfg config.ServerConfig, logger *zerolog.Logger) *ServerApp {
	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}
	authService := auth.NewService(auth.NewMemoryStore(), jwtConfig)
	chat := transporthttp.NewServer(authService, cfg, logger)

	return &ServerApp{
		server:          chat.HTTPServer(),
		chat:            chat,
		shutdownTimeout: cfg.ShutdownTimeout,
		seed:            cfg.Seed,
		log:             logger,
	}
}

// Chat exposes the room registry and connection controls.
func (a *ServerApp) Chat() *transporthttp.Server {
	return a.chat
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *ServerApp) Run(ctx context.Context) error {
	if a.seed {
		if err := a.chat.Seed(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("starting wirechat dev server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// hijacked websocket connections are not tracked by Shutdown
		a.chat.DisconnectAll()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
