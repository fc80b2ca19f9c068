package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/teamboard-dev/teamboard/internal/types"
)

const DefaultRedisChannel = "teamboard:events"

// RedisBroker shares rooms between API instances over a Redis pub/sub
// channel. Messages published while no instance is subscribed are lost.
type RedisBroker struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

func NewRedisBroker(client *redis.Client, channel string, logger *slog.Logger) *RedisBroker {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBroker{client: client, channel: channel, logger: logger}
}

func (b *RedisBroker) Publish(ctx context.Context, msg types.SocketMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, handler func(types.SocketMessage)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg types.SocketMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.logger.Warn("discarding malformed event",
						slog.String("channel", m.Channel),
						slog.String("error", err.Error()),
					)
					continue
				}
				handler(msg)
			}
		}
	}()
	return nil
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}
