// Package redisbus implements the event bus on Redis pub/sub, for
// deployments where more than one server node serves the same boards.
// Redis preserves publish order per channel and delivers to currently
// connected subscribers only, which matches the bus contract.
package redisbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dalessandro07/bancopoly/internal/events"
	"github.com/dalessandro07/bancopoly/internal/model"
)

const keyPrefix = "bancopoly"

// channelKey returns the Redis pub/sub channel for a board.
func channelKey(boardID model.BoardID) string {
	return fmt.Sprintf("%s:events:%s", keyPrefix, boardID)
}

// Bus is a Redis-backed implementation of events.Bus.
type Bus struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a Redis bus from a URL, verifying the connection.
func New(url string, logger *slog.Logger) (*Bus, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, logger), nil
}

// NewWithClient creates a Redis bus with an existing client (for testing).
func NewWithClient(client *redis.Client, logger *slog.Logger) *Bus {
	return &Bus{
		client: client,
		logger: logger.With(slog.String("component", "redisbus")),
	}
}

var _ events.Bus = (*Bus)(nil)

// Close closes the Redis connection.
func (b *Bus) Close() error {
	return b.client.Close()
}

// Publish encodes the event and publishes it on the board's channel.
func (b *Bus) Publish(ctx context.Context, boardID model.BoardID, ev model.Event) error {
	data, err := events.Encode(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelKey(boardID), data).Err()
}

// Subscribe opens a Redis subscription on the board's channel and decodes
// incoming envelopes. Messages that fail to decode, including unknown
// event kinds, are logged and skipped.
func (b *Bus) Subscribe(ctx context.Context, boardID model.BoardID) (events.Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channelKey(boardID))

	// Force the subscription to be established before returning, so a
	// publish after Subscribe is never missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &subscription{
		pubsub: pubsub,
		ch:     make(chan model.Event, 256),
	}

	go func() {
		defer close(sub.ch)
		for msg := range pubsub.Channel() {
			ev, err := events.Decode([]byte(msg.Payload))
			if err != nil {
				level := slog.LevelError
				if errors.Is(err, events.ErrUnknownEventKind) {
					level = slog.LevelWarn
				}
				b.logger.Log(context.Background(), level, "discarding event",
					slog.String("board", string(boardID)),
					slog.String("error", err.Error()))
				continue
			}
			sub.ch <- ev
		}
	}()

	return sub, nil
}

type subscription struct {
	pubsub *redis.PubSub
	ch     chan model.Event

	closeOnce sync.Once
	closeErr  error
}

func (s *subscription) Events() <-chan model.Event {
	return s.ch
}

func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.pubsub.Close()
	})
	return s.closeErr
}
