package sse

import (
	"context"
	"log/slog"
	"sync"

	"github.com/dalessandro07/bancopoly/internal/events"
	"github.com/dalessandro07/bancopoly/internal/model"
)

// Bridge fans board events out to SSE clients. It keeps one Hub per board
// with an active subscription on the bus, created lazily on the first
// client and torn down when the last client disconnects.
type Bridge struct {
	bus    events.Bus
	logger *slog.Logger

	mu    sync.Mutex
	hubs  map[model.BoardID]*boardHub
	close context.CancelFunc
	ctx   context.Context
}

type boardHub struct {
	hub     *Hub
	sub     events.Subscription
	cancel  context.CancelFunc
	clients int
}

// NewBridge creates a Bridge backed by the given bus
func NewBridge(bus events.Bus, logger *slog.Logger) *Bridge {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		bus:    bus,
		logger: logger,
		hubs:   make(map[model.BoardID]*boardHub),
		ctx:    ctx,
		close:  cancel,
	}
}

// Attach acquires the hub for a board, subscribing to the bus if this is
// the board's first client. The returned hub must be passed to the
// client's ServeSSE, and Detach must be called when the connection ends.
func (b *Bridge) Attach(boardID model.BoardID) (*Hub, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bh, ok := b.hubs[boardID]
	if !ok {
		hub := NewHub(boardID, b.logger)
		subCtx, cancel := context.WithCancel(b.ctx)
		sub, err := b.bus.Subscribe(subCtx, boardID)
		if err != nil {
			cancel()
			return nil, err
		}
		bh = &boardHub{hub: hub, sub: sub, cancel: cancel}
		b.hubs[boardID] = bh
		go hub.Run()
		go b.pump(boardID, hub, sub)
	}
	bh.clients++
	return bh.hub, nil
}

// Detach signals that a client's connection has ended. When the last
// client for a board detaches, the hub and its subscription are torn down.
func (b *Bridge) Detach(boardID model.BoardID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	bh, ok := b.hubs[boardID]
	if !ok {
		return
	}
	bh.clients--
	if bh.clients > 0 {
		return
	}
	delete(b.hubs, boardID)
	bh.cancel()
	if err := bh.sub.Close(); err != nil {
		b.logger.Warn("failed to close board subscription",
			slog.String("board", string(boardID)),
			slog.String("error", err.Error()))
	}
	bh.hub.Close()
}

// pump copies events from a bus subscription into a hub as SSE messages,
// named by the event kind with the JSON envelope as the data
func (b *Bridge) pump(boardID model.BoardID, hub *Hub, sub events.Subscription) {
	for ev := range sub.Events() {
		data, err := events.Encode(ev)
		if err != nil {
			b.logger.Error("failed to encode event for sse",
				slog.String("board", string(boardID)),
				slog.String("kind", string(ev.Kind)),
				slog.String("error", err.Error()))
			continue
		}
		hub.BroadcastEvent(string(ev.Kind), string(data))
	}
}

// Close tears down every hub and subscription
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.close()
	for boardID, bh := range b.hubs {
		if err := bh.sub.Close(); err != nil {
			b.logger.Warn("failed to close board subscription",
				slog.String("board", string(boardID)),
				slog.String("error", err.Error()))
		}
		bh.hub.Close()
		delete(b.hubs, boardID)
	}
}

// HubClientCount reports the number of clients attached for a board
func (b *Bridge) HubClientCount(boardID model.BoardID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bh, ok := b.hubs[boardID]; ok {
		return bh.clients
	}
	return 0
}
