package model

import "time"

// UserID uniquely identifies an authenticated identity
type UserID string

// PlayerID uniquely identifies a player within the system
type PlayerID string

// User is the identity the session provider supplies for each request.
// The ledger trusts it as already authenticated.
type User struct {
	ID          UserID
	DisplayName string
	IsGuest     bool // true for anonymous accounts
	CreatedAt   time.Time
}

// SystemPlayerType distinguishes the automated counterparties from
// ordinary participants.
type SystemPlayerType string

const (
	SystemPlayerNone        SystemPlayerType = ""
	SystemPlayerBank        SystemPlayerType = "bank"
	SystemPlayerFreeParking SystemPlayerType = "free_parking"
)

const (
	// StartingBalance is the balance every ordinary player receives on join
	StartingBalance int64 = 1500
	// BankBalance is the sentinel balance representing "unlimited"
	BankBalance int64 = 999_999_999

	// Display names for the system players, as the original game uses them
	BankName        = "Banco"
	FreeParkingName = "Parada Libre"
)

// Player is an account with a balance inside one board: either an
// ordinary participant or one of the two system accounts.
type Player struct {
	ID               PlayerID         `json:"id"`
	BoardID          BoardID          `json:"board_id"`
	UserID           *UserID          `json:"user_id"` // nil for system players
	Name             string           `json:"name"`
	Balance          int64            `json:"balance"`
	IsSystemPlayer   bool             `json:"is_system_player"`
	SystemPlayerType SystemPlayerType `json:"system_player_type,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// BelongsTo reports whether this player record is owned by the given user.
// System players belong to no one.
func (p *Player) BelongsTo(userID UserID) bool {
	return p.UserID != nil && *p.UserID == userID
}
