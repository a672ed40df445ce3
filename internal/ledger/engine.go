// Package ledger implements the rules for moving play-money between
// players. Every mutating operation validates, applies a durable write
// through the store and then publishes events on the board's channel.
// Publication is best-effort: once the write commits, a publish failure
// is logged and never surfaced to the caller.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dalessandro07/bancopoly/internal/authz"
	"github.com/dalessandro07/bancopoly/internal/dependencies/clock"
	"github.com/dalessandro07/bancopoly/internal/dependencies/random"
	"github.com/dalessandro07/bancopoly/internal/events"
	"github.com/dalessandro07/bancopoly/internal/model"
	"github.com/dalessandro07/bancopoly/internal/storage"
)

const (
	// BoardCodeLength is the length of generated board codes
	BoardCodeLength = 6
	// BoardCodeAlphabet is the characters used in board codes (avoid confusing chars)
	BoardCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

	// historyLimit bounds the recent transactions returned in a snapshot
	historyLimit = 50
)

// Engine validates and applies ledger operations.
type Engine struct {
	store  storage.Store
	bus    events.Bus
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// New creates a ledger engine.
func New(store storage.Store, bus events.Bus, clock clock.Clock, random random.Random, logger *slog.Logger) *Engine {
	return &Engine{
		store:  store,
		bus:    bus,
		clock:  clock,
		random: random,
		logger: logger.With(slog.String("component", "ledger")),
	}
}

// CreateBoard creates a board together with its two system players and
// the creator's own player, as a single all-or-nothing insert. Guests
// cannot create boards.
func (e *Engine) CreateBoard(ctx context.Context, actor *model.User, name string) (*model.Board, *model.Player, error) {
	if err := authz.CanCreateBoard(actor); err != nil {
		return nil, nil, err
	}
	if name == "" {
		return nil, nil, model.ErrEmptyName
	}

	now := e.clock.Now()

	// Generate an unused board code
	var boardID model.BoardID
	for {
		boardID = model.BoardID(e.random.String(BoardCodeLength, BoardCodeAlphabet))
		exists, err := e.store.BoardExists(ctx, boardID)
		if err != nil {
			return nil, nil, fmt.Errorf("checking board code: %w", err)
		}
		if !exists {
			break
		}
	}

	board := &model.Board{
		ID:                 boardID,
		Name:               name,
		CreatorID:          actor.ID,
		FreeParkingEnabled: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	creatorID := actor.ID
	creator := &model.Player{
		ID:        model.PlayerID(uuid.NewString()),
		BoardID:   boardID,
		UserID:    &creatorID,
		Name:      actor.DisplayName,
		Balance:   model.StartingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}
	players := []*model.Player{
		{
			ID:               model.PlayerID(uuid.NewString()),
			BoardID:          boardID,
			Name:             model.BankName,
			Balance:          model.BankBalance,
			IsSystemPlayer:   true,
			SystemPlayerType: model.SystemPlayerBank,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		{
			ID:               model.PlayerID(uuid.NewString()),
			BoardID:          boardID,
			Name:             model.FreeParkingName,
			Balance:          0,
			IsSystemPlayer:   true,
			SystemPlayerType: model.SystemPlayerFreeParking,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		creator,
	}

	if err := e.store.CreateBoard(ctx, board, players); err != nil {
		return nil, nil, fmt.Errorf("creating board: %w", err)
	}

	for _, p := range players {
		e.publish(ctx, boardID, model.NewPlayerInserted(p))
	}

	return board, creator, nil
}

// Join adds the actor as an ordinary player with the starting balance.
// Joining an ended board is rejected.
func (e *Engine) Join(ctx context.Context, actor *model.User, boardID model.BoardID, displayName string) (*model.Player, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}

	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if board.IsEnded {
		return nil, model.ErrBoardEnded
	}

	if _, err := e.store.GetPlayerByUser(ctx, boardID, actor.ID); err == nil {
		return nil, model.ErrAlreadyJoined
	} else if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	if displayName == "" {
		displayName = actor.DisplayName
	}
	if displayName == "" {
		return nil, model.ErrEmptyName
	}

	now := e.clock.Now()
	userID := actor.ID
	player := &model.Player{
		ID:        model.PlayerID(uuid.NewString()),
		BoardID:   boardID,
		UserID:    &userID,
		Name:      displayName,
		Balance:   model.StartingBalance,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// CreatePlayer re-checks membership atomically with the insert, so two
	// concurrent joins by the same user produce exactly one player.
	if err := e.store.CreatePlayer(ctx, player); err != nil {
		if errors.Is(err, model.ErrAlreadyJoined) {
			return nil, err
		}
		return nil, fmt.Errorf("joining board: %w", err)
	}

	e.publish(ctx, boardID, model.NewPlayerInserted(player))
	return player, nil
}

// TransferRequest describes one requested money movement.
type TransferRequest struct {
	BoardID      model.BoardID
	FromPlayerID model.PlayerID
	ToPlayerID   model.PlayerID
	Amount       int64
	Description  string
	// IdempotencyKey, when set, makes a retried request return the
	// already-applied transaction instead of applying it again.
	IdempotencyKey string
}

// Transfer moves Amount from one player's balance to another's and
// records the immutable transaction, as one atomic unit. System players
// (bank and free parking) are exempt from the funds check: both behave
// as unlimited counterparties and may go negative.
//
// On success exactly three events are published, in order:
// transaction.inserted, player.updated (from), player.updated (to).
func (e *Engine) Transfer(ctx context.Context, actor *model.User, req TransferRequest) (*model.Transaction, error) {
	if req.Amount <= 0 {
		return nil, model.ErrInvalidAmount
	}
	if req.FromPlayerID == req.ToPlayerID {
		return nil, model.ErrSelfTransfer
	}
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}

	board, err := e.store.GetBoard(ctx, req.BoardID)
	if err != nil {
		return nil, err
	}

	// The actor must be a participant of the board
	if _, err := e.store.GetPlayerByUser(ctx, req.BoardID, actor.ID); err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) {
			return nil, fmt.Errorf("transfer: not a participant of this board: %w", model.ErrUnauthorized)
		}
		return nil, err
	}

	fromPlayer, err := e.store.GetPlayer(ctx, req.FromPlayerID)
	if err != nil {
		return nil, err
	}
	if fromPlayer.BoardID != req.BoardID {
		return nil, model.ErrWrongBoard
	}
	if err := authz.CanInitiateTransferFrom(actor, board, fromPlayer); err != nil {
		return nil, err
	}

	toPlayer, err := e.store.GetPlayer(ctx, req.ToPlayerID)
	if err != nil {
		return nil, err
	}
	if toPlayer.BoardID != req.BoardID {
		return nil, model.ErrWrongBoard
	}

	// Replay of an already-applied request. The lookup precedes the funds
	// check: the applied transfer itself may have left the sender short,
	// and a retry must still see the recorded transaction.
	if req.IdempotencyKey != "" {
		existing, err := e.store.GetTransactionByKey(ctx, req.BoardID, req.IdempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, model.ErrTransactionNotFound) {
			return nil, err
		}
	}

	enforceFunds := !fromPlayer.IsSystemPlayer
	if enforceFunds && fromPlayer.Balance < req.Amount {
		return nil, model.ErrInsufficientFunds
	}

	fromID := req.FromPlayerID
	toID := req.ToPlayerID
	txn := &model.Transaction{
		ID:             model.TransactionID(uuid.NewString()),
		BoardID:        req.BoardID,
		FromPlayerID:   &fromID,
		ToPlayerID:     &toID,
		Amount:         req.Amount,
		Type:           model.TransactionTransfer,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      e.clock.Now(),
	}

	// The store applies both balance mutations and the insert atomically,
	// re-checking funds and the idempotency key against the state it
	// commits. A concurrent request that won the race on the same key
	// surfaces here as ErrTransactionExists.
	updatedFrom, updatedTo, err := e.store.ApplyTransfer(ctx, fromID, toID, req.Amount, enforceFunds, txn)
	if err != nil {
		if errors.Is(err, model.ErrTransactionExists) {
			return e.store.GetTransactionByKey(ctx, req.BoardID, req.IdempotencyKey)
		}
		return nil, err
	}

	e.publish(ctx, req.BoardID, model.NewTransactionInserted(txn))
	e.publish(ctx, req.BoardID, model.NewPlayerUpdated(updatedFrom))
	e.publish(ctx, req.BoardID, model.NewPlayerUpdated(updatedTo))

	return txn, nil
}

// RemovePlayer deletes an ordinary player from a board. Only the creator
// may do this, and never to a system player. Past transactions keep the
// removed player's id; readers render it as an unknown player.
func (e *Engine) RemovePlayer(ctx context.Context, actor *model.User, boardID model.BoardID, targetID model.PlayerID) error {
	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}

	target, err := e.store.GetPlayer(ctx, targetID)
	if err != nil {
		return err
	}
	if target.BoardID != boardID {
		return model.ErrWrongBoard
	}

	if err := authz.CanRemovePlayer(actor, board, target); err != nil {
		return err
	}

	if err := e.store.DeletePlayer(ctx, targetID); err != nil {
		return fmt.Errorf("removing player: %w", err)
	}

	e.publish(ctx, boardID, model.NewPlayerDeleted(boardID, targetID))
	return nil
}

// Leave removes the actor's own player from a board. The creator cannot
// leave a board they own.
func (e *Engine) Leave(ctx context.Context, actor *model.User, boardID model.BoardID) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}

	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}

	player, err := e.store.GetPlayerByUser(ctx, boardID, actor.ID)
	if err != nil {
		return err
	}

	if err := authz.CanLeave(actor, board, player); err != nil {
		return err
	}

	if err := e.store.DeletePlayer(ctx, player.ID); err != nil {
		return fmt.Errorf("leaving board: %w", err)
	}

	e.publish(ctx, boardID, model.NewPlayerDeleted(boardID, player.ID))
	return nil
}

// CloseBoard marks a board as ended. The transition is one-way; closing
// an already-ended board fails.
func (e *Engine) CloseBoard(ctx context.Context, actor *model.User, boardID model.BoardID) (*model.Board, error) {
	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	if err := authz.CanCloseOrDeleteBoard(actor, board); err != nil {
		return nil, err
	}

	ended, err := e.store.EndBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	e.publish(ctx, boardID, model.NewBoardUpdated(boardID, true))
	return ended, nil
}

// DeleteBoard removes a board and everything in it. The deletion event is
// published immediately after the delete; nothing else can be published
// on the channel afterwards.
func (e *Engine) DeleteBoard(ctx context.Context, actor *model.User, boardID model.BoardID) error {
	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return err
	}

	if err := authz.CanCloseOrDeleteBoard(actor, board); err != nil {
		return err
	}

	if err := e.store.DeleteBoard(ctx, boardID); err != nil {
		return fmt.Errorf("deleting board: %w", err)
	}

	e.publish(ctx, boardID, model.NewBoardDeleted(boardID))
	return nil
}

// Snapshot is the fetched initial state an observer seeds its local view
// with before consuming the board's event stream.
type Snapshot struct {
	Board        *model.Board
	Players      []*model.Player
	Transactions []*model.Transaction
}

// GetSnapshot reads a consistent starting view of a board.
func (e *Engine) GetSnapshot(ctx context.Context, actor *model.User, boardID model.BoardID) (*Snapshot, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}

	board, err := e.store.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	players, err := e.store.ListPlayers(ctx, boardID)
	if err != nil {
		return nil, err
	}
	txns, err := e.store.ListTransactions(ctx, boardID, historyLimit)
	if err != nil {
		return nil, err
	}

	return &Snapshot{Board: board, Players: players, Transactions: txns}, nil
}

// ListBoards returns every board the actor participates in, whether as
// creator or as a joined player, oldest first.
func (e *Engine) ListBoards(ctx context.Context, actor *model.User) ([]*model.Board, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	return e.store.ListBoardsForUser(ctx, actor.ID)
}

// ListTransactions returns a board's history, newest first.
func (e *Engine) ListTransactions(ctx context.Context, actor *model.User, boardID model.BoardID, limit int) ([]*model.Transaction, error) {
	if actor == nil {
		return nil, model.ErrUnauthenticated
	}
	if _, err := e.store.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}
	return e.store.ListTransactions(ctx, boardID, limit)
}

// publish sends one event on the board's channel. The durable write has
// already committed, so failures are logged and not returned.
func (e *Engine) publish(ctx context.Context, boardID model.BoardID, ev model.Event) {
	if err := e.bus.Publish(ctx, boardID, ev); err != nil {
		e.logger.Error("event publish failed",
			slog.String("board", string(boardID)),
			slog.String("kind", string(ev.Kind)),
			slog.String("error", err.Error()))
	}
}
