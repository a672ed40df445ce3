package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newPayCmd() *cobra.Command {
	var from, to, description, idempotencyKey string

	cmd := &cobra.Command{
		Use:   "pay <board> <amount>",
		Short: "Transfer money between players",
		Long: `Transfer money from one player to another on a board.

The sender must be your own player, or a system account if you are the
board's creator. Use the player IDs shown by 'board show'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount must be an integer: %w", err)
			}
			if from == "" || to == "" {
				return fmt.Errorf("--from and --to are required")
			}

			req := map[string]any{
				"from_player_id": from,
				"to_player_id":   to,
				"amount":         amount,
			}
			if description != "" {
				req["description"] = description
			}
			if idempotencyKey != "" {
				req["idempotency_key"] = idempotencyKey
			}

			var result Transaction
			if err := client.Post("/api/v1/boards/"+args[0]+"/transfers", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Sending player ID (required)")
	cmd.Flags().StringVar(&to, "to", "", "Receiving player ID (required)")
	cmd.Flags().StringVar(&description, "description", "", "Transaction description")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Key for safe retries")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <board>",
		Short: "Show a board's transaction history, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/boards/" + args[0] + "/transactions"
			if limit > 0 {
				path += "?limit=" + strconv.Itoa(limit)
			}

			var result TransactionList
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of transactions (0 for all)")

	return cmd
}
