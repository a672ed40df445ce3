package model

import "time"

// BoardID is the stable identifier for a board. It doubles as the
// human-readable room code players use to join.
type BoardID string

// Board represents one game room: a set of players, their balances
// and the room's transaction history.
type Board struct {
	ID                 BoardID   `json:"id"`
	Name               string    `json:"name"`
	CreatorID          UserID    `json:"creator_id"`
	FreeParkingEnabled bool      `json:"free_parking_enabled"`
	IsEnded            bool      `json:"is_ended"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsCreator reports whether the given user owns this board.
func (b *Board) IsCreator(userID UserID) bool {
	return b.CreatorID == userID
}
