package cli

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dalessandro07/bancopoly/internal/events"
	"github.com/dalessandro07/bancopoly/internal/model"
	"github.com/dalessandro07/bancopoly/internal/reconcile"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events <board>",
		Short: "Stream live board events",
		Long: `Connect to the board's SSE endpoint and maintain a live local view.

The command seeds itself with a board snapshot, then applies each incoming
event: players appear and disappear, balances update, and transactions are
deduplicated and classified relative to your own player (sent, received,
or a public movement involving the bank or free parking).

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return streamEvents(args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output raw event envelopes as JSON lines")

	return cmd
}

// snapshotPayload mirrors the board snapshot response using core types
type snapshotPayload struct {
	Board        model.Board          `json:"board"`
	Players      []*model.Player      `json:"players"`
	Transactions []*model.Transaction `json:"transactions"`
}

func streamEvents(boardID string, jsonOutput bool) error {
	// Identify ourselves so transactions can be classified
	var me User
	if err := client.Get("/api/v1/users/me", &me); err != nil {
		return err
	}

	// Seed the local view from a snapshot
	var snap snapshotPayload
	if err := client.Get("/api/v1/boards/"+boardID, &snap); err != nil {
		return err
	}

	var selfID model.PlayerID
	for _, p := range snap.Players {
		if p.UserID != nil && string(*p.UserID) == me.ID {
			selfID = p.ID
			break
		}
	}

	rec := reconcile.New(selfID, &snap.Board, snap.Players, snap.Transactions)

	url := strings.TrimSuffix(cfg.ServerURL, "/") + "/boards/" + boardID + "/events"

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	// Set up cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	req = req.WithContext(ctx)

	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		fmt.Printf("Connected to board %s (%d players)\n", boardID, len(snap.Players))
	}

	// Parse SSE stream
	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "event: ") {
			currentEvent = strings.TrimPrefix(line, "event: ")
		} else if strings.HasPrefix(line, "data: ") {
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		} else if line == "" {
			// End of event
			if currentEvent != "" {
				data := strings.Join(dataLines, "\n")
				handleEvent(rec, currentEvent, data, jsonOutput)
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is expected
		if ctx.Err() != nil {
			if !jsonOutput {
				fmt.Println("\nDisconnected")
			}
			return nil
		}
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Println("Disconnected")
	}
	return nil
}

func handleEvent(rec *reconcile.Reconciler, eventName, data string, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(data)
		return
	}

	// The connected handshake is not a board event
	if eventName == "connected" {
		return
	}

	ev, err := events.Decode([]byte(data))
	if err != nil {
		fmt.Printf("[%s] unrecognized event %q\n", timestamp(), eventName)
		return
	}

	result, err := rec.Apply(ev)
	if err != nil {
		fmt.Printf("[%s] could not apply %s: %s\n", timestamp(), eventName, err)
		return
	}

	printUpdate(rec, ev, result)
}

func printUpdate(rec *reconcile.Reconciler, ev model.Event, result reconcile.Result) {
	ts := timestamp()

	switch result.Notice {
	case reconcile.NoticeRemoved:
		fmt.Printf("[%s] you were removed from the board\n", ts)
		return
	case reconcile.NoticeBoardEnded:
		fmt.Printf("[%s] the game has ended; view is now read-only\n", ts)
		return
	case reconcile.NoticeBoardDeleted:
		fmt.Printf("[%s] the board was deleted\n", ts)
		return
	}

	switch ev.Kind {
	case model.EventPlayerInserted:
		fmt.Printf("[%s] %s joined with $%d\n", ts, ev.Player.Name, ev.Player.Balance)
	case model.EventPlayerUpdated:
		fmt.Printf("[%s] %s now has $%d\n", ts, ev.Player.Name, ev.Player.Balance)
	case model.EventPlayerDeleted:
		fmt.Printf("[%s] a player left the board\n", ts)
	case model.EventTransactionInserted:
		printClassified(rec, ev.Transaction, result.Classification, ts)
	case model.EventBoardUpdated:
		// Notices cover the ended transition; other updates are silent
	case model.EventBoardDeleted:
		// Covered by NoticeBoardDeleted
	}
}

func printClassified(rec *reconcile.Reconciler, txn *model.Transaction, class reconcile.Classification, ts string) {
	name := func(id *model.PlayerID) string {
		if id == nil {
			return "-"
		}
		if p, ok := rec.Player(*id); ok {
			return p.Name
		}
		return string(*id)
	}

	switch class {
	case reconcile.ClassSender:
		fmt.Printf("[%s] you paid $%d to %s\n", ts, txn.Amount, name(txn.ToPlayerID))
	case reconcile.ClassReceiver:
		fmt.Printf("[%s] you received $%d from %s\n", ts, txn.Amount, name(txn.FromPlayerID))
	case reconcile.ClassBystander:
		fmt.Printf("[%s] %s paid $%d to %s\n", ts, name(txn.FromPlayerID), txn.Amount, name(txn.ToPlayerID))
	case reconcile.ClassDuplicate, reconcile.ClassHidden:
		// Nothing to show
	}
}

func timestamp() string {
	return time.Now().Format("15:04:05")
}
