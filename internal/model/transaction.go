package model

import "time"

// TransactionID uniquely identifies a transaction
type TransactionID string

// TransactionType classifies a money movement
type TransactionType string

const (
	TransactionTransfer    TransactionType = "transfer"
	TransactionBankGive    TransactionType = "bank_give"
	TransactionBankTake    TransactionType = "bank_take"
	TransactionFreeParking TransactionType = "free_parking"
	TransactionInitial     TransactionType = "initial"
)

// Transaction is the immutable record of one money movement. Rows are
// never updated or deleted; a player reference may dangle after the
// player is removed and readers must render it as an unknown player.
type Transaction struct {
	ID             TransactionID   `json:"id"`
	BoardID        BoardID         `json:"board_id"`
	FromPlayerID   *PlayerID       `json:"from_player_id"`
	ToPlayerID     *PlayerID       `json:"to_player_id"`
	Amount         int64           `json:"amount"`
	Type           TransactionType `json:"type"`
	Description    string          `json:"description,omitempty"`
	IdempotencyKey string          `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Involves reports whether the given player is a party to this transaction.
func (t *Transaction) Involves(playerID PlayerID) bool {
	if t.FromPlayerID != nil && *t.FromPlayerID == playerID {
		return true
	}
	return t.ToPlayerID != nil && *t.ToPlayerID == playerID
}
