// Package events defines the event bus every mutating ledger operation
// publishes to. Each board owns one logical channel, identified by its
// board id. The bus guarantees in-order delivery per channel to currently
// connected subscribers; it offers no durability and no catch-up log.
package events

import (
	"context"

	"github.com/dalessandro07/bancopoly/internal/model"
)

// Bus is the pub/sub transport behind which either an in-process fan-out
// or an external broker can sit. Implementations publish explicitly after
// each durable write rather than tailing storage change feeds, so event
// schemas stay decoupled from row representations.
type Bus interface {
	// Publish sends one event to every current subscriber of the board's
	// channel. Delivery is at-least-once; callers must not treat a publish
	// failure as a reason to roll back the durable write that preceded it.
	Publish(ctx context.Context, boardID model.BoardID, ev model.Event) error

	// Subscribe attaches to a board's channel. Events published before the
	// subscription exist are not replayed.
	Subscribe(ctx context.Context, boardID model.BoardID) (Subscription, error)
}

// Subscription is one attachment to a board's channel.
type Subscription interface {
	// Events returns the ordered stream for this subscription. The channel
	// is closed when the subscription is closed.
	Events() <-chan model.Event

	// Close detaches from the channel and releases resources.
	Close() error
}
