package redis

import (
	"fmt"

	"github.com/dalessandro07/bancopoly/internal/model"
)

// Key prefix for all ledger data
const keyPrefix = "bancopoly"

// Key generation functions for each entity type

// boardKey returns the Redis key for a Board
func boardKey(id model.BoardID) string {
	return fmt.Sprintf("%s:board:%s", keyPrefix, id)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersForBoardIndexKey returns the Redis key for the SET of player keys on a board
func playersForBoardIndexKey(boardID model.BoardID) string {
	return fmt.Sprintf("%s:idx:players_for_board:%s", keyPrefix, boardID)
}

// userIndexKey returns the Redis key for the (board, user) -> player_id index
func userIndexKey(boardID model.BoardID, userID model.UserID) string {
	return fmt.Sprintf("%s:idx:board_user:%s:%s", keyPrefix, boardID, userID)
}

// boardsForUserIndexKey returns the Redis key for the SET of board ids a user plays on
func boardsForUserIndexKey(userID model.UserID) string {
	return fmt.Sprintf("%s:idx:boards_for_user:%s", keyPrefix, userID)
}

// transactionsKey returns the Redis key for a board's transaction LIST (newest first)
func transactionsKey(boardID model.BoardID) string {
	return fmt.Sprintf("%s:txns:%s", keyPrefix, boardID)
}

// idempotencyKey returns the Redis key for the (board, caller key) -> transaction index
func idempotencyKey(boardID model.BoardID, key string) string {
	return fmt.Sprintf("%s:idx:idem:%s:%s", keyPrefix, boardID, key)
}
