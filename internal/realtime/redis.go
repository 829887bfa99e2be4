package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"clan-rental-backend/internal/domain"
	"clan-rental-backend/internal/logger"

	"github.com/go-redis/redis/v8"
)

// RedisRelay shares chat messages between server instances through Redis
// pub/sub. Every instance, the publisher included, delivers a message to its
// local hub when it comes back from Redis.
type RedisRelay struct {
	client *redis.Client
	hub    *Hub
	prefix string
}

func NewRedisRelay(client *redis.Client, hub *Hub, prefix string) *RedisRelay {
	return &RedisRelay{client: client, hub: hub, prefix: prefix}
}

func (r *RedisRelay) channel(rentalID int32) string {
	return fmt.Sprintf("%s:%d", r.prefix, rentalID)
}

// rentalFromChannel parses the rental id back out of a channel name.
func (r *RedisRelay) rentalFromChannel(channel string) (int32, bool) {
	idPart, ok := strings.CutPrefix(channel, r.prefix+":")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(idPart, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}

// Publish sends msg through Redis. When Redis is unreachable the message is
// still delivered to this instance's subscribers.
func (r *RedisRelay) Publish(ctx context.Context, msg domain.ChatMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Error("Failed to encode chat message for relay", "error", err)
		r.hub.Broadcast(msg)
		return
	}

	logger.ExternalServiceCall("redis", "publish", "rentalID", msg.RentalID)
	err = r.client.Publish(ctx, r.channel(msg.RentalID), data).Err()
	logger.ExternalServiceResult("redis", "publish", err, "rentalID", msg.RentalID)
	if err != nil {
		r.hub.Broadcast(msg)
	}
}

func (r *RedisRelay) Subscribe(rentalID int32) (<-chan domain.ChatMessage, func()) {
	return r.hub.Subscribe(rentalID)
}

// Run forwards relayed messages to the local hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, r.prefix+":*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.prefix, err)
	}
	logger.Info("Chat relay subscribed", "pattern", r.prefix+":*")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.deliver(m.Channel, m.Payload)
		}
	}
}

func (r *RedisRelay) deliver(channel, payload string) {
	rentalID, ok := r.rentalFromChannel(channel)
	if !ok {
		logger.Warn("Ignoring relay message on unexpected channel", "channel", channel)
		return
	}
	var msg domain.ChatMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		logger.Warn("Ignoring malformed relay message", "channel", channel, "error", err)
		return
	}
	msg.RentalID = rentalID
	r.hub.Broadcast(msg)
}
