package ws

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const DefaultRelayChannel = "etiquetas:live"

// RedisRelay fans events out to every instance through a Redis pub/sub channel.
type RedisRelay struct {
	rdb     *redis.Client
	channel string
}

func NewRedisRelay(rdb *redis.Client, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	return &RedisRelay{rdb: rdb, channel: channel}
}

func (r *RedisRelay) Publish(ctx context.Context, msg []byte) error {
	return r.rdb.Publish(ctx, r.channel, msg).Err()
}

// Subscribe blocks until ctx is done, calling deliver for every message.
func (r *RedisRelay) Subscribe(ctx context.Context, deliver func([]byte)) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed so no early event is lost
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			deliver([]byte(m.Payload))
		}
	}
}
