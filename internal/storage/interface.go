package storage

import (
	"context"

	"github.com/dalessandro07/bancopoly/internal/model"
)

// Store defines the interface for data persistence. It holds no business
// rules; the one correctness-critical guarantee it provides is that
// CreateBoard is all-or-nothing and ApplyTransfer applies the balance
// read-modify-write plus the transaction insert as a single atomic unit.
type Store interface {
	// Board operations
	// CreateBoard inserts the board and its initial players (the two system
	// accounts plus the creator) as one unit; on failure no partial board
	// exists.
	CreateBoard(ctx context.Context, board *model.Board, players []*model.Player) error
	GetBoard(ctx context.Context, id model.BoardID) (*model.Board, error)
	BoardExists(ctx context.Context, id model.BoardID) (bool, error)
	// EndBoard sets IsEnded. It fails with model.ErrBoardEnded when the
	// board has already ended, and returns the updated board.
	EndBoard(ctx context.Context, id model.BoardID) (*model.Board, error)
	// DeleteBoard removes the board and cascades to its players and
	// transactions.
	DeleteBoard(ctx context.Context, id model.BoardID) error
	// ListBoardsForUser returns every board the user has a player on,
	// oldest first.
	ListBoardsForUser(ctx context.Context, userID model.UserID) ([]*model.Board, error)

	// Player operations
	// CreatePlayer inserts a new player. For a user-owned player the insert
	// and the one-player-per-user check happen atomically: a second insert
	// for the same (board, user) pair fails with model.ErrAlreadyJoined.
	CreatePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	// GetPlayerByUser resolves the single player a user owns on a board.
	GetPlayerByUser(ctx context.Context, boardID model.BoardID, userID model.UserID) (*model.Player, error)
	ListPlayers(ctx context.Context, boardID model.BoardID) ([]*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Transaction operations
	// ApplyTransfer atomically re-reads both players, re-checks funds when
	// enforceFunds is set, moves amount from one balance to the other and
	// inserts the transaction row. Two concurrent transfers touching an
	// overlapping player never interleave their read-modify-write. When the
	// transaction carries an idempotency key that has already been applied
	// on its board, nothing is written and model.ErrTransactionExists is
	// returned; the check is atomic with the apply, so two concurrent
	// requests sharing a key apply at most once. Returns both players as
	// written.
	ApplyTransfer(ctx context.Context, fromID, toID model.PlayerID, amount int64, enforceFunds bool, txn *model.Transaction) (*model.Player, *model.Player, error)
	// ListTransactions returns a board's history newest-first, up to limit
	// (0 means no limit).
	ListTransactions(ctx context.Context, boardID model.BoardID, limit int) ([]*model.Transaction, error)
	// GetTransactionByKey looks up a transaction by its idempotency key.
	GetTransactionByKey(ctx context.Context, boardID model.BoardID, key string) (*model.Transaction, error)
}
