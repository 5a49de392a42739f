// Package http is a local chat server that speaks the same wire contract as
// the production backend: JSON envelopes over /ws and a small REST API for
// accounts and chatrooms. It exists for development and integration tests.
package http

import (
	"context"
	"fmt"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/auth"
	"github.com/vovakirdan/wirechat-client/internal/config"
)

// Demo accounts created by Seed. They share one password.
var (
	SeedUsers    = []string{"alice", "bob"}
	SeedPassword = "password123"
)

// Server bundles the router with the state tests and the CLI reach into.
type Server struct {
	Handler stdhttp.Handler

	cfg   config.ServerConfig
	rooms *Rooms
	auth  *auth.Service
	ws    *WSHandler
	log   *zerolog.Logger
}

// NewServer builds the router with all routes.
func NewServer(authService *auth.Service, cfg config.ServerConfig, logger *zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	rooms := NewRooms()
	ws := NewWSHandler(rooms, authService, cfg, logger)
	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(rooms, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)
		api.GET("/chatrooms", roomHandlers.ListRooms)

		protected := api.Group("/chatrooms")
		protected.Use(AuthMiddleware(authService, logger))
		protected.GET("/my", roomHandlers.ListMyRooms)
		protected.POST("/create", roomHandlers.CreateRoom)
	}

	// /ws stays outside gin: the upgrade needs an untouched response writer.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)

	return &Server{
		Handler: mux,
		cfg:     cfg,
		rooms:   rooms,
		auth:    authService,
		ws:      ws,
		log:     logger,
	}
}

// HTTPServer wraps the router for ListenAndServe.
func (s *Server) HTTPServer() *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}
}

// Rooms exposes the room registry.
func (s *Server) Rooms() *Rooms {
	return s.rooms
}

// DisconnectAll drops every WebSocket connection.
func (s *Server) DisconnectAll() int {
	return s.ws.DisconnectAll()
}

// Seed creates the demo rooms and accounts.
func (s *Server) Seed(ctx context.Context) error {
	s.rooms.Create("General Chat", "A general chat room for everyone", "system")
	s.rooms.Create("Tech Talk", "Discuss technology and programming", "system")
	s.rooms.Create("Random", "Chat about anything and everything", "system")

	for _, name := range SeedUsers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.auth.Register(ctx, name, SeedPassword); err != nil {
			return fmt.Errorf("seed user %s: %w", name, err)
		}
	}
	s.log.Info().Strs("users", SeedUsers).Msg("seeded demo rooms and users")
	return nil
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
