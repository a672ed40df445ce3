// Package reconcile maintains one connected observer's local view of a
// board. A reconciler is seeded from a fetched snapshot and then fed the
// board's event stream; it deduplicates, merges each event into the local
// state and classifies it relative to the observer for presentation.
package reconcile

import (
	"fmt"

	"github.com/dalessandro07/bancopoly/internal/events"
	"github.com/dalessandro07/bancopoly/internal/model"
)

// seenCapacity bounds the per-observer memory of already-seen
// transaction ids.
const seenCapacity = 256

// Classification describes how a transaction relates to the observer.
type Classification int

const (
	// ClassNone applies to non-transaction events.
	ClassNone Classification = iota
	// ClassSender: the observer's player sent the money.
	ClassSender
	// ClassReceiver: the observer's player received the money.
	ClassReceiver
	// ClassBystander: the observer is uninvolved but the transaction
	// touches a system account, so the flow is public.
	ClassBystander
	// ClassHidden: a private flow between two other ordinary players.
	ClassHidden
	// ClassDuplicate: the transaction was already applied.
	ClassDuplicate
)

// Notice is a condition the presentation layer must react to.
type Notice int

const (
	NoticeNone Notice = iota
	// NoticeRemoved: the observer's own player was removed from the board.
	NoticeRemoved
	// NoticeBoardEnded: the board ended; the view becomes a read-only summary.
	NoticeBoardEnded
	// NoticeBoardDeleted: the board no longer exists; the observer must exit.
	NoticeBoardDeleted
)

// Presentation holds display-only fields joined from outside the event
// stream (profile name, avatar). They survive player.updated events,
// whose payloads do not carry them.
type Presentation struct {
	ProfileName string
	AvatarURL   string
}

// Result reports what applying one event did.
type Result struct {
	Notice         Notice
	Classification Classification
}

// Reconciler is one observer's live view of a board.
type Reconciler struct {
	selfID model.PlayerID

	board        model.Board
	players      []*model.Player
	transactions []*model.Transaction // newest first
	presentation map[model.PlayerID]Presentation
	seen         *seenSet
	readOnly     bool
}

// New seeds a reconciler from a fetched snapshot. selfID is the
// observer's own player id and may be empty for a pure spectator.
func New(selfID model.PlayerID, board *model.Board, players []*model.Player, transactions []*model.Transaction) *Reconciler {
	r := &Reconciler{
		selfID:       selfID,
		board:        *board,
		presentation: make(map[model.PlayerID]Presentation),
		seen:         newSeenSet(seenCapacity),
		readOnly:     board.IsEnded,
	}
	for _, p := range players {
		cp := *p
		r.players = append(r.players, &cp)
	}
	for _, t := range transactions {
		ct := *t
		r.transactions = append(r.transactions, &ct)
		r.seen.Add(ct.ID)
	}
	return r
}

// Apply merges one bus event into the local state.
func (r *Reconciler) Apply(ev model.Event) (Result, error) {
	switch ev.Kind {
	case model.EventPlayerInserted:
		if ev.Player == nil {
			return Result{}, fmt.Errorf("player.inserted event without payload")
		}
		r.upsertPlayer(ev.Player, false)
		return Result{}, nil

	case model.EventPlayerUpdated:
		if ev.Player == nil {
			return Result{}, fmt.Errorf("player.updated event without payload")
		}
		r.upsertPlayer(ev.Player, true)
		return Result{}, nil

	case model.EventPlayerDeleted:
		if ev.PlayerDeleted == nil {
			return Result{}, fmt.Errorf("player.deleted event without payload")
		}
		r.removePlayer(ev.PlayerDeleted.ID)
		if ev.PlayerDeleted.ID == r.selfID && r.selfID != "" {
			return Result{Notice: NoticeRemoved}, nil
		}
		return Result{}, nil

	case model.EventTransactionInserted:
		if ev.Transaction == nil {
			return Result{}, fmt.Errorf("transaction.inserted event without payload")
		}
		return r.applyTransaction(ev.Transaction), nil

	case model.EventBoardUpdated:
		if ev.BoardUpdated == nil {
			return Result{}, fmt.Errorf("board.updated event without payload")
		}
		r.board.IsEnded = ev.BoardUpdated.IsEnded
		if ev.BoardUpdated.IsEnded {
			r.readOnly = true
			return Result{Notice: NoticeBoardEnded}, nil
		}
		return Result{}, nil

	case model.EventBoardDeleted:
		return Result{Notice: NoticeBoardDeleted}, nil

	default:
		return Result{}, fmt.Errorf("%w: %q", events.ErrUnknownEventKind, ev.Kind)
	}
}

func (r *Reconciler) applyTransaction(txn *model.Transaction) Result {
	if r.seen.Has(txn.ID) {
		return Result{Classification: ClassDuplicate}
	}
	r.seen.Add(txn.ID)

	class := r.classify(txn)
	if class != ClassHidden {
		ct := *txn
		r.transactions = append([]*model.Transaction{&ct}, r.transactions...)
	}
	return Result{Classification: class}
}

// classify decides how a transaction is presented to this observer.
// Flows touching a system account are public; flows between two other
// ordinary players are not shown.
func (r *Reconciler) classify(txn *model.Transaction) Classification {
	if r.selfID != "" {
		if txn.FromPlayerID != nil && *txn.FromPlayerID == r.selfID {
			return ClassSender
		}
		if txn.ToPlayerID != nil && *txn.ToPlayerID == r.selfID {
			return ClassReceiver
		}
	}
	if r.touchesSystemPlayer(txn) {
		return ClassBystander
	}
	return ClassHidden
}

func (r *Reconciler) touchesSystemPlayer(txn *model.Transaction) bool {
	for _, p := range r.players {
		if !p.IsSystemPlayer {
			continue
		}
		if txn.Involves(p.ID) {
			return true
		}
	}
	return false
}

func (r *Reconciler) upsertPlayer(player *model.Player, replace bool) {
	for i, p := range r.players {
		if p.ID == player.ID {
			if replace {
				cp := *player
				r.players[i] = &cp
			}
			return
		}
	}
	cp := *player
	r.players = append(r.players, &cp)
}

func (r *Reconciler) removePlayer(id model.PlayerID) {
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return
		}
	}
}

// SetPresentation caches display-only fields for a player. They are kept
// across player.updated events.
func (r *Reconciler) SetPresentation(id model.PlayerID, p Presentation) {
	r.presentation[id] = p
}

// Presentation returns the cached display-only fields for a player.
func (r *Reconciler) Presentation(id model.PlayerID) (Presentation, bool) {
	p, ok := r.presentation[id]
	return p, ok
}

// Board returns the current board snapshot.
func (r *Reconciler) Board() model.Board {
	return r.board
}

// ReadOnly reports whether the view has transitioned to the read-only
// summary state.
func (r *Reconciler) ReadOnly() bool {
	return r.readOnly
}

// Players returns the current player list in join order.
func (r *Reconciler) Players() []*model.Player {
	out := make([]*model.Player, len(r.players))
	for i, p := range r.players {
		cp := *p
		out[i] = &cp
	}
	return out
}

// Player returns the current state of one player, if present.
func (r *Reconciler) Player(id model.PlayerID) (*model.Player, bool) {
	for _, p := range r.players {
		if p.ID == id {
			cp := *p
			return &cp, true
		}
	}
	return nil, false
}

// Transactions returns the visible history, newest first.
func (r *Reconciler) Transactions() []*model.Transaction {
	out := make([]*model.Transaction, len(r.transactions))
	for i, t := range r.transactions {
		ct := *t
		out[i] = &ct
	}
	return out
}
