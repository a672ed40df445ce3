package response

import (
	"time"

	"github.com/dalessandro07/bancopoly/internal/ledger"
	"github.com/dalessandro07/bancopoly/internal/model"
	"github.com/dalessandro07/bancopoly/internal/services/auth"
)

// User represents a user in API responses
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.ID),
		DisplayName: u.DisplayName,
		IsGuest:     u.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
	}
}

// Player represents a player in API responses
type Player struct {
	ID               string    `json:"id"`
	BoardID          string    `json:"board_id"`
	UserID           *string   `json:"user_id"`
	Name             string    `json:"name"`
	Balance          int64     `json:"balance"`
	IsSystemPlayer   bool      `json:"is_system_player"`
	SystemPlayerType string    `json:"system_player_type,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PlayerFromModel converts a model.Player
func PlayerFromModel(p *model.Player) Player {
	var userID *string
	if p.UserID != nil {
		u := string(*p.UserID)
		userID = &u
	}
	return Player{
		ID:               string(p.ID),
		BoardID:          string(p.BoardID),
		UserID:           userID,
		Name:             p.Name,
		Balance:          p.Balance,
		IsSystemPlayer:   p.IsSystemPlayer,
		SystemPlayerType: string(p.SystemPlayerType),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}

// Board represents a board in API responses
type Board struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CreatorID          string    `json:"creator_id"`
	FreeParkingEnabled bool      `json:"free_parking_enabled"`
	IsEnded            bool      `json:"is_ended"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// BoardFromModel converts a model.Board
func BoardFromModel(b *model.Board) Board {
	return Board{
		ID:                 string(b.ID),
		Name:               b.Name,
		CreatorID:          string(b.CreatorID),
		FreeParkingEnabled: b.FreeParkingEnabled,
		IsEnded:            b.IsEnded,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// Transaction represents a ledger transaction in API responses
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

// TransactionFromModel converts a model.Transaction
func TransactionFromModel(t *model.Transaction) Transaction {
	var from, to *string
	if t.FromPlayerID != nil {
		f := string(*t.FromPlayerID)
		from = &f
	}
	if t.ToPlayerID != nil {
		v := string(*t.ToPlayerID)
		to = &v
	}
	return Transaction{
		ID:           string(t.ID),
		BoardID:      string(t.BoardID),
		FromPlayerID: from,
		ToPlayerID:   to,
		Amount:       t.Amount,
		Type:         string(t.Type),
		Description:  t.Description,
		CreatedAt:    t.CreatedAt,
	}
}

// BoardList wraps the boards a user participates in
type BoardList struct {
	Boards []Board `json:"boards"`
}

// BoardListFromModel converts a slice of model boards
func BoardListFromModel(boards []*model.Board) BoardList {
	out := make([]Board, len(boards))
	for i, b := range boards {
		out[i] = BoardFromModel(b)
	}
	return BoardList{Boards: out}
}

// CreateBoardResponse is the response after creating a board
type CreateBoardResponse struct {
	Board  Board  `json:"board"`
	Player Player `json:"player"`
}

// Snapshot is the full state of a board for seeding clients
type Snapshot struct {
	Board        Board         `json:"board"`
	Players      []Player      `json:"players"`
	Transactions []Transaction `json:"transactions"`
}

// SnapshotFromModel converts a ledger.Snapshot
func SnapshotFromModel(s *ledger.Snapshot) Snapshot {
	players := make([]Player, len(s.Players))
	for i, p := range s.Players {
		players[i] = PlayerFromModel(p)
	}
	txns := make([]Transaction, len(s.Transactions))
	for i, t := range s.Transactions {
		txns[i] = TransactionFromModel(t)
	}
	return Snapshot{
		Board:        BoardFromModel(s.Board),
		Players:      players,
		Transactions: txns,
	}
}

// TransactionList wraps a list of transactions
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
}

// TransactionListFromModel converts a slice of model transactions
func TransactionListFromModel(txns []*model.Transaction) TransactionList {
	out := make([]Transaction, len(txns))
	for i, t := range txns {
		out[i] = TransactionFromModel(t)
	}
	return TransactionList{Transactions: out}
}
