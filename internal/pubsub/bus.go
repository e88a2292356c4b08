// Package pubsub publishes operator-facing events to redis. The admin
// dashboard subscribes to these channels; the engine only ever writes. A
// publish failure is logged and swallowed because events are a side
// observer, not a correctness dependency.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Streams are capped so an idle dashboard cannot grow redis unbounded.
const streamMaxLen = 1000

type Bus struct {
	rdb *redis.Client
	log *zap.Logger
}

func New(rdb *redis.Client, log *zap.Logger) *Bus {
	return &Bus{rdb: rdb, log: log}
}

// PublishBot publishes an event on a bot's channel.
func (b *Bus) PublishBot(ctx context.Context, botID int64, event map[string]interface{}) error {
	return b.Publish(ctx, fmt.Sprintf("bot:%d", botID), event)
}

// PublishAttempt publishes an event on an attempt's channel.
func (b *Bus) PublishAttempt(ctx context.Context, attemptID string, event map[string]interface{}) error {
	return b.Publish(ctx, "attempt:"+attemptID, event)
}

// Publish fans the event out over pub/sub for live subscribers and appends
// it to a capped stream so a dashboard that reconnects can catch up.
func (b *Bus) Publish(ctx context.Context, channel string, event map[string]interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if err := b.rdb.Publish(ctx, channel, data).Err(); err != nil {
		b.log.Error("Failed to publish event", zap.String("channel", channel), zap.Error(err))
		return err
	}

	err = b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: "stream:" + channel,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"event": string(data)},
	}).Err()
	if err != nil {
		b.log.Warn("Failed to append event to stream", zap.String("channel", channel), zap.Error(err))
		// Live publish already went out
	}

	b.log.Debug("Published event", zap.String("channel", channel), zap.String("event", string(data)))
	return nil
}
