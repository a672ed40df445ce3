package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case AuthResult:
		o.printAuthResult(v)
	case Player:
		o.printPlayer(v)
	case Board:
		o.printBoard(v)
	case BoardList:
		o.printBoardList(v)
	case CreateBoardResult:
		o.printCreateBoardResult(v)
	case Snapshot:
		o.printSnapshot(v)
	case Transaction:
		o.printTransaction(v)
	case TransactionList:
		o.printTransactionList(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// Player response type
type Player struct {
	ID               string `json:"id"`
	BoardID          string `json:"board_id"`
	UserID           *string `json:"user_id"`
	Name             string `json:"name"`
	Balance          int64  `json:"balance"`
	IsSystemPlayer   bool   `json:"is_system_player"`
	SystemPlayerType string `json:"system_player_type,omitempty"`
}

// Board response type
type Board struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CreatorID          string    `json:"creator_id"`
	FreeParkingEnabled bool      `json:"free_parking_enabled"`
	IsEnded            bool      `json:"is_ended"`
	CreatedAt          time.Time `json:"created_at"`
}

// BoardList response type
type BoardList struct {
	Boards []Board `json:"boards"`
}

// CreateBoardResult response type
type CreateBoardResult struct {
	Board  Board  `json:"board"`
	Player Player `json:"player"`
}

// Transaction response type
type Transaction struct {
	ID           string    `json:"id"`
	BoardID      string    `json:"board_id"`
	FromPlayerID *string   `json:"from_player_id"`
	ToPlayerID   *string   `json:"to_player_id"`
	Amount       int64     `json:"amount"`
	Type         string    `json:"type"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Snapshot response type
type Snapshot struct {
	Board        Board         `json:"board"`
	Players      []Player      `json:"players"`
	Transactions []Transaction `json:"transactions"`
}

// TransactionList response type
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printUser(u User) {
	guestStr := "no"
	if u.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("User: %s (%s)\n", u.DisplayName, u.ID)
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printPlayer(p Player) {
	label := ""
	if p.IsSystemPlayer {
		label = fmt.Sprintf(" [%s]", p.SystemPlayerType)
	}
	fmt.Printf("Player: %s%s (%s)\n", p.Name, label, p.ID)
	fmt.Printf("Balance: $%d\n", p.Balance)
}

func (o *Output) printBoard(b Board) {
	fmt.Printf("Board: %s (%s)\n", b.Name, b.ID)
	status := "active"
	if b.IsEnded {
		status = "ended"
	}
	fmt.Printf("Status: %s\n", status)
	fmt.Printf("Created: %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"))
}

func (o *Output) printBoardList(l BoardList) {
	if len(l.Boards) == 0 {
		fmt.Println("No boards")
		return
	}
	for _, b := range l.Boards {
		status := "active"
		if b.IsEnded {
			status = "ended"
		}
		fmt.Printf("%s  %s (%s)\n", b.ID, b.Name, status)
	}
}

func (o *Output) printCreateBoardResult(r CreateBoardResult) {
	o.printBoard(r.Board)
	fmt.Println()
	o.printPlayer(r.Player)
}

func (o *Output) printSnapshot(s Snapshot) {
	o.printBoard(s.Board)
	fmt.Printf("Players (%d):\n", len(s.Players))
	for _, p := range s.Players {
		label := ""
		if p.IsSystemPlayer {
			label = fmt.Sprintf(" [%s]", p.SystemPlayerType)
		}
		fmt.Printf("  - %s%s: $%d (%s)\n", p.Name, label, p.Balance, p.ID)
	}
	if len(s.Transactions) > 0 {
		fmt.Printf("Recent transactions (%d):\n", len(s.Transactions))
		for _, t := range s.Transactions {
			fmt.Printf("  %s\n", formatTransactionLine(t))
		}
	}
}

func (o *Output) printTransaction(t Transaction) {
	fmt.Printf("Transaction: %s\n", t.ID)
	fmt.Printf("Type: %s\n", t.Type)
	fmt.Printf("Amount: $%d\n", t.Amount)
	if t.Description != "" {
		fmt.Printf("Description: %s\n", t.Description)
	}
	fmt.Printf("Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
}

func (o *Output) printTransactionList(l TransactionList) {
	if len(l.Transactions) == 0 {
		fmt.Println("No transactions")
		return
	}
	for _, t := range l.Transactions {
		fmt.Println(formatTransactionLine(t))
	}
}

func formatTransactionLine(t Transaction) string {
	from := "-"
	if t.FromPlayerID != nil {
		from = *t.FromPlayerID
	}
	to := "-"
	if t.ToPlayerID != nil {
		to = *t.ToPlayerID
	}
	line := fmt.Sprintf("[%s] %s -> %s: $%d (%s)",
		t.CreatedAt.Format("15:04:05"), from, to, t.Amount, t.Type)
	if t.Description != "" {
		line += " " + t.Description
	}
	return line
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
