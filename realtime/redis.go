package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisChannel is a Channel over Redis pub/sub, for deployments with
// more than one server instance behind a load balancer.
type RedisChannel struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewRedisChannel(client *redis.Client, log *logrus.Logger) *RedisChannel {
	return &RedisChannel{client: client, log: log}
}

func channelName(roomCode string) string {
	return "duel:room:" + roomCode
}

func (c *RedisChannel) Publish(ctx context.Context, roomCode string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("realtime: marshal event: %w", err)
	}
	if err := c.client.Publish(ctx, channelName(roomCode), payload).Err(); err != nil {
		return fmt.Errorf("realtime: publish %s: %w", roomCode, err)
	}
	return nil
}

func (c *RedisChannel) Subscribe(ctx context.Context, roomCode string) (<-chan Event, func(), error) {
	sub := c.client.Subscribe(ctx, channelName(roomCode))
	// Force the subscription onto the wire before we report success.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("realtime: subscribe %s: %w", roomCode, err)
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				c.log.WithError(err).WithField("room", roomCode).
					Warn("REALTIME: dropping malformed event")
				continue
			}
			select {
			case out <- ev:
			default:
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}
