package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Board management commands",
	}

	cmd.AddCommand(newBoardCreateCmd())
	cmd.AddCommand(newBoardListCmd())
	cmd.AddCommand(newBoardShowCmd())
	cmd.AddCommand(newBoardJoinCmd())
	cmd.AddCommand(newBoardLeaveCmd())
	cmd.AddCommand(newBoardCloseCmd())
	cmd.AddCommand(newBoardDeleteCmd())
	cmd.AddCommand(newBoardRemovePlayerCmd())

	return cmd
}

func newBoardCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new board",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}

			req := map[string]string{"name": name}
			var result CreateBoardResult

			if err := client.Post("/api/v1/boards", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Board name (required)")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newBoardListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the boards you play on",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result BoardList

			if err := client.Get("/api/v1/boards", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newBoardShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <board>",
		Short: "Show a board with its players and recent transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Snapshot

			if err := client.Get("/api/v1/boards/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newBoardJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <board>",
		Short: "Join a board as a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{}
			if name != "" {
				req["display_name"] = name
			}
			var result Player

			if err := client.Post("/api/v1/boards/"+args[0]+"/join", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Player name (defaults to your display name)")

	return cmd
}

func newBoardLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <board>",
		Short: "Leave a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post("/api/v1/boards/"+args[0]+"/leave", nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Left board " + args[0])
			return nil
		},
	}
}

func newBoardCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <board>",
		Short: "Close a board, ending the game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Board

			if err := client.Post("/api/v1/boards/"+args[0]+"/close", nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newBoardDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <board>",
		Short: "Delete a board and all its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/boards/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Deleted board " + args[0])
			return nil
		},
	}
}

func newBoardRemovePlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-player <board> <player>",
		Short: "Remove a player from a board (creator only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/boards/" + args[0] + "/players/" + args[1]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Removed player " + args[1])
			return nil
		},
	}
}
