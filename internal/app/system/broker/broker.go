// internal/app/system/broker/broker.go
//
// Fire-and-forget notifications to collaborating services. The channel
// service announces successful deletions so downstream services (video,
// comments, uploads) can clean up. Publish failures never fail the mutation
// that triggered them; callers log and move on.
package broker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// TopicChannelRemoveSucceeded announces that a channel was deleted.
// The payload is ChannelRemoved.
const TopicChannelRemoveSucceeded = "channel.remove.succeeded"

// ChannelRemoved is the payload for TopicChannelRemoveSucceeded.
type ChannelRemoved struct {
	ID string `json:"id"`
}

// Event is the wire envelope for every published notification.
type Event struct {
	ID    string    `json:"id"`
	Topic string    `json:"topic"`
	At    time.Time `json:"at"`
	Data  any       `json:"data"`
}

// Publisher is the notification sink consumed by the authorization services.
// Publish is fire-and-forget: no acknowledgment is awaited.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// RedisPublisher publishes events over Redis pub/sub, one Redis channel per
// topic key.
type RedisPublisher struct {
	rdb *redis.Client
	log *zap.Logger
}

func NewRedisPublisher(rdb *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, log: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload any) error {
	ev := Event{
		ID:    uuid.NewString(),
		Topic: topic,
		At:    time.Now().UTC(),
		Data:  payload,
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.rdb.Publish(ctx, topic, b).Err(); err != nil {
		p.log.Warn("event publish failed",
			zap.String("topic", topic),
			zap.Error(err))
		return err
	}
	return nil
}

// Nop discards every event. Used when no broker is configured and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
