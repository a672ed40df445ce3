package events

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dalessandro07/bancopoly/internal/model"
)

// ErrUnknownEventKind is returned when decoding an envelope whose kind is
// not one of the six known event kinds. Receivers log and skip these
// rather than ignoring them silently.
var ErrUnknownEventKind = errors.New("unknown event kind")

// envelope is the wire form of an event: a kind tag plus one payload
// shape per kind.
type envelope struct {
	Kind    model.EventKind `json:"kind"`
	BoardID model.BoardID   `json:"board_id"`
	Payload json.RawMessage `json:"payload"`
}

// Encode serializes an event into its JSON envelope.
func Encode(ev model.Event) ([]byte, error) {
	var payload any
	switch ev.Kind {
	case model.EventPlayerInserted, model.EventPlayerUpdated:
		payload = ev.Player
	case model.EventPlayerDeleted:
		payload = ev.PlayerDeleted
	case model.EventTransactionInserted:
		payload = ev.Transaction
	case model.EventBoardUpdated:
		payload = ev.BoardUpdated
	case model.EventBoardDeleted:
		payload = ev.BoardDeletedPayload
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, ev.Kind)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", ev.Kind, err)
	}
	return json.Marshal(envelope{Kind: ev.Kind, BoardID: ev.BoardID, Payload: raw})
}

// Decode parses a JSON envelope back into an event, decoding the payload
// exhaustively by kind.
func Decode(data []byte) (model.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return model.Event{}, fmt.Errorf("decoding event envelope: %w", err)
	}

	ev := model.Event{Kind: env.Kind, BoardID: env.BoardID}
	switch env.Kind {
	case model.EventPlayerInserted, model.EventPlayerUpdated:
		var p model.Player
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Kind, err)
		}
		ev.Player = &p
	case model.EventPlayerDeleted:
		var p model.PlayerDeletedEvent
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Kind, err)
		}
		ev.PlayerDeleted = &p
	case model.EventTransactionInserted:
		var t model.Transaction
		if err := json.Unmarshal(env.Payload, &t); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Kind, err)
		}
		ev.Transaction = &t
	case model.EventBoardUpdated:
		var b model.BoardUpdatedEvent
		if err := json.Unmarshal(env.Payload, &b); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Kind, err)
		}
		ev.BoardUpdated = &b
	case model.EventBoardDeleted:
		var b model.BoardDeletedEvent
		if err := json.Unmarshal(env.Payload, &b); err != nil {
			return model.Event{}, fmt.Errorf("decoding %s payload: %w", env.Kind, err)
		}
		ev.BoardDeletedPayload = &b
	default:
		return model.Event{}, fmt.Errorf("%w: %q", ErrUnknownEventKind, env.Kind)
	}

	return ev, nil
}
