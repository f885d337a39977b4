package cli

import (
	"github.com/spf13/cobra"
)

func newRoomsCmd() *cobra.Command {
	roomsCmd := &cobra.Command{
		Use:   "rooms",
		Short: "Manage rooms (requires admin key)",
	}

	roomsCmd.AddCommand(newRoomsListCmd())
	roomsCmd.AddCommand(newRoomsGetCmd())
	roomsCmd.AddCommand(newRoomsKillCmd())
	roomsCmd.AddCommand(newRoomsResetCmd())

	return roomsCmd
}

func newRoomsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomList

			if err := client.Get("/api/v1/admin/rooms", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Show a room's public state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result RoomState

			if err := client.Get("/api/v1/admin/rooms/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRoomsKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <room-id>",
		Short: "Force-delete a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/admin/rooms/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("room " + args[0] + " deleted")
			return nil
		},
	}
}

func newRoomsResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <room-id>",
		Short: "Reset a room to the lobby state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/admin/rooms/"+args[0]+"/reset", nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("room " + args[0] + " reset")
			return nil
		},
	}
}
