package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/app"
)

func chatCmd(c *cli) *cobra.Command {
	var (
		username   string
		room       string
		allowLobby bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a room and chat",
		Long: `Join a chat room and read lines from stdin.

Commands inside the chat:
  /join <room>  switch rooms
  /leave        disconnect without exiting
  /users        show who is online
  /quit         leave and exit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := c.cfg
			if username != "" {
				cfg.Username = username
			}
			if room != "" {
				cfg.Room = room
			}
			if allowLobby {
				cfg.RequireRoom = false
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return app.RunChat(ctx, app.ChatOptions{
				Config: cfg,
				In:     os.Stdin,
				Out:    os.Stdout,
				Colors: colorOutput(),
				Logger: c.logger,
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "display name (defaults to the logged-in user)")
	cmd.Flags().StringVarP(&room, "room", "r", "", "room id to join")
	cmd.Flags().BoolVar(&allowLobby, "lobby", false, "allow joining without a room id")

	return cmd
}
