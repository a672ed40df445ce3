// Package authz holds the pure authorization rules for board actions.
// Every rule is a side-effect-free decision function: nil means allowed,
// otherwise the error wraps model.ErrUnauthorized (or ErrUnauthenticated)
// and names the rule that failed. Missing actor, board or player records
// always fail closed.
package authz

import (
	"fmt"

	"github.com/dalessandro07/bancopoly/internal/model"
)

// CanCreateBoard allows board creation for registered identities only.
// Guests may play but not host.
func CanCreateBoard(actor *model.User) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}
	if actor.IsGuest {
		return fmt.Errorf("can_create_board: guests cannot create boards: %w", model.ErrUnauthorized)
	}
	return nil
}

// CanInitiateTransferFrom allows a transfer out of fromPlayer when it is
// the actor's own player, or when the actor is the board's creator and
// fromPlayer is a system account (the creator operates the bank and the
// pot on behalf of the table).
func CanInitiateTransferFrom(actor *model.User, board *model.Board, fromPlayer *model.Player) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}
	if board == nil || fromPlayer == nil {
		return fmt.Errorf("can_initiate_transfer: %w", model.ErrUnauthorized)
	}
	if fromPlayer.BelongsTo(actor.ID) {
		return nil
	}
	if fromPlayer.IsSystemPlayer && board.IsCreator(actor.ID) {
		return nil
	}
	return fmt.Errorf("can_initiate_transfer: not your player: %w", model.ErrUnauthorized)
}

// CanRemovePlayer allows only the creator to remove players, and never
// a system player.
func CanRemovePlayer(actor *model.User, board *model.Board, target *model.Player) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}
	if board == nil || target == nil {
		return fmt.Errorf("can_remove_player: %w", model.ErrUnauthorized)
	}
	if !board.IsCreator(actor.ID) {
		return fmt.Errorf("can_remove_player: only the creator can remove players: %w", model.ErrUnauthorized)
	}
	if target.IsSystemPlayer {
		return fmt.Errorf("can_remove_player: %w", model.ErrSystemPlayer)
	}
	return nil
}

// CanLeave allows a player to leave their own board, except the creator,
// who must close or delete the board instead.
func CanLeave(actor *model.User, board *model.Board, player *model.Player) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}
	if board == nil || player == nil {
		return fmt.Errorf("can_leave: %w", model.ErrUnauthorized)
	}
	if !player.BelongsTo(actor.ID) {
		return fmt.Errorf("can_leave: not your player: %w", model.ErrUnauthorized)
	}
	if board.IsCreator(actor.ID) {
		return fmt.Errorf("can_leave: the creator cannot leave their own board: %w", model.ErrUnauthorized)
	}
	return nil
}

// CanCloseOrDeleteBoard allows only the creator to close or delete a board.
func CanCloseOrDeleteBoard(actor *model.User, board *model.Board) error {
	if actor == nil {
		return model.ErrUnauthenticated
	}
	if board == nil {
		return fmt.Errorf("can_close_or_delete: %w", model.ErrUnauthorized)
	}
	if !board.IsCreator(actor.ID) {
		return fmt.Errorf("can_close_or_delete: only the creator can do this: %w", model.ErrUnauthorized)
	}
	return nil
}
