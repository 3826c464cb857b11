package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// Message 跨实例转发的广播，Origin 用于跳过自己发出的消息
type Message struct {
	Origin  string          `json:"origin"`
	RoomID  string          `json:"roomId"`
	Payload json.RawMessage `json:"payload"`
}

// Broker 跨实例广播通道
type Broker interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(ctx context.Context, handle func(Message)) error
	Name() string
}

// RedisBroker 基于 Redis Pub/Sub
type RedisBroker struct {
	client  *redis.Client
	channel string
}

func NewRedisBroker(client *redis.Client, channel string) *RedisBroker {
	if channel == "" {
		channel = "colab:relay"
	}
	return &RedisBroker{client: client, channel: channel}
}

func (b *RedisBroker) Name() string {
	return "redis"
}

func (b *RedisBroker) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode relay message: %w", err)
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Subscribe 阻塞读取频道直到 ctx 结束
func (b *RedisBroker) Subscribe(ctx context.Context, handle func(Message)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				log.Debugf("[Relay] Dropping malformed broker message: %v", err)
				continue
			}
			handle(msg)
		}
	}
}
