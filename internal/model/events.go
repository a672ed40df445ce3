package model

// EventKind identifies the type of event published on a board's channel
type EventKind string

const (
	EventPlayerInserted      EventKind = "player.inserted"
	EventPlayerUpdated       EventKind = "player.updated"
	EventPlayerDeleted       EventKind = "player.deleted"
	EventTransactionInserted EventKind = "transaction.inserted"
	EventBoardUpdated        EventKind = "board.updated"
	EventBoardDeleted        EventKind = "board.deleted"
)

// Event is published to a board's channel whenever durable state changes.
// Exactly one payload field is set, matching Kind. Payloads are
// self-contained snapshots so a receiver needs no prior history.
type Event struct {
	Kind                EventKind
	BoardID             BoardID
	Player              *Player             // player.inserted, player.updated
	PlayerDeleted       *PlayerDeletedEvent // player.deleted
	Transaction         *Transaction        // transaction.inserted
	BoardUpdated        *BoardUpdatedEvent  // board.updated
	BoardDeletedPayload *BoardDeletedEvent  // board.deleted
}

// PlayerDeletedEvent carries only the removed player's id; the record
// itself is already gone when the event is published.
type PlayerDeletedEvent struct {
	ID PlayerID `json:"id"`
}

// BoardUpdatedEvent signals the board's one-way transition to ended.
type BoardUpdatedEvent struct {
	ID      BoardID `json:"id"`
	IsEnded bool    `json:"is_ended"`
}

// BoardDeletedEvent signals the board no longer exists.
type BoardDeletedEvent struct {
	ID BoardID `json:"id"`
}

// NewPlayerInserted builds a player.inserted event for the player's board.
func NewPlayerInserted(p *Player) Event {
	return Event{Kind: EventPlayerInserted, BoardID: p.BoardID, Player: p}
}

// NewPlayerUpdated builds a player.updated event for the player's board.
func NewPlayerUpdated(p *Player) Event {
	return Event{Kind: EventPlayerUpdated, BoardID: p.BoardID, Player: p}
}

// NewPlayerDeleted builds a player.deleted event. The board id must be
// passed separately since the payload carries only the player id.
func NewPlayerDeleted(boardID BoardID, playerID PlayerID) Event {
	return Event{Kind: EventPlayerDeleted, BoardID: boardID, PlayerDeleted: &PlayerDeletedEvent{ID: playerID}}
}

// NewTransactionInserted builds a transaction.inserted event.
func NewTransactionInserted(t *Transaction) Event {
	return Event{Kind: EventTransactionInserted, BoardID: t.BoardID, Transaction: t}
}

// NewBoardUpdated builds a board.updated event.
func NewBoardUpdated(boardID BoardID, isEnded bool) Event {
	return Event{Kind: EventBoardUpdated, BoardID: boardID, BoardUpdated: &BoardUpdatedEvent{ID: boardID, IsEnded: isEnded}}
}

// NewBoardDeleted builds a board.deleted event.
func NewBoardDeleted(boardID BoardID) Event {
	return Event{Kind: EventBoardDeleted, BoardID: boardID, BoardDeletedPayload: &BoardDeletedEvent{ID: boardID}}
}
