// Package membus is the in-process event bus implementation. It fans out
// events to per-board subscriber channels and is the default transport
// for single-node deployments and tests.
package membus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dalessandro07/bancopoly/internal/events"
	"github.com/dalessandro07/bancopoly/internal/model"
)

// subscriberBufferSize bounds each subscriber's queue. A subscriber that
// falls this far behind starts losing events and must re-fetch state.
const subscriberBufferSize = 256

// Bus is an in-memory implementation of events.Bus.
type Bus struct {
	mu     sync.RWMutex
	subs   map[model.BoardID]map[*subscription]struct{}
	logger *slog.Logger
}

// New creates an in-memory bus.
func New(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[model.BoardID]map[*subscription]struct{}),
		logger: logger.With(slog.String("component", "membus")),
	}
}

var _ events.Bus = (*Bus)(nil)

// Publish delivers the event to every subscriber of the board's channel,
// in publish order. Slow subscribers are skipped with a logged drop.
func (b *Bus) Publish(ctx context.Context, boardID model.BoardID, ev model.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[boardID] {
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("event dropped - subscriber buffer full",
				slog.String("board", string(boardID)),
				slog.String("kind", string(ev.Kind)))
		}
	}
	return nil
}

// Subscribe attaches a new subscription to the board's channel.
func (b *Bus) Subscribe(ctx context.Context, boardID model.BoardID) (events.Subscription, error) {
	sub := &subscription{
		bus:     b,
		boardID: boardID,
		ch:      make(chan model.Event, subscriberBufferSize),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[boardID] == nil {
		b.subs[boardID] = make(map[*subscription]struct{})
	}
	b.subs[boardID][sub] = struct{}{}
	return sub, nil
}

// SubscriberCount returns the number of active subscriptions for a board.
func (b *Bus) SubscriberCount(boardID model.BoardID) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[boardID])
}

type subscription struct {
	bus     *Bus
	boardID model.BoardID
	ch      chan model.Event

	closeOnce sync.Once
}

func (s *subscription) Events() <-chan model.Event {
	return s.ch
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		if subs, ok := s.bus.subs[s.boardID]; ok {
			delete(subs, s)
			if len(subs) == 0 {
				delete(s.bus.subs, s.boardID)
			}
		}
		s.bus.mu.Unlock()
		close(s.ch)
	})
	return nil
}
