package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-client/internal/api"
	"github.com/vovakirdan/wirechat-client/internal/app"
)

func roomsCmd(c *cli) *cobra.Command {
	var mine bool

	cmd := &cobra.Command{
		Use:   "rooms",
		Short: "List chat rooms",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				rooms []api.Chatroom
				err   error
			)
			if mine {
				rooms, err = c.restClient().MyRooms(cmd.Context())
			} else {
				rooms, err = c.restClient().ListRooms(cmd.Context())
			}
			if err != nil {
				return err
			}
			app.RenderRooms(os.Stdout, rooms)
			return nil
		},
	}

	cmd.Flags().BoolVar(&mine, "mine", false, "only rooms you created (requires login)")
	return cmd
}

func createRoomCmd(c *cli) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create-room <name>",
		Short: "Create a chat room (requires login)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			room, err := c.restClient().CreateRoom(cmd.Context(), args[0], description)
			if err != nil {
				return err
			}
			fmt.Printf("created %q with id %s\n", room.Name, room.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "room description")
	return cmd
}
