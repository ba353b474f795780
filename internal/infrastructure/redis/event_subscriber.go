package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"marketplace-client/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// AcceptedBidHandler is invoked for every message on the accepted-bid channel.
type AcceptedBidHandler func(msg *AcceptedBidMessage) error

type RedisEventSubscriber struct {
	client  *redis.Client
	channel string
	log     logger.Logger
}

func NewRedisEventSubscriber(client *redis.Client, channel string, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client:  client,
		channel: channel,
		log:     log,
	}
}

// SubscribeToAcceptedBids blocks until ctx is done, feeding handler.
func (r *RedisEventSubscriber) SubscribeToAcceptedBids(ctx context.Context, handler AcceptedBidHandler) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	ch := pubsub.Channel()

	r.log.Info("Subscribed to accepted bids", "channel", r.channel)

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var event AcceptedBidMessage
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.log.Error("Failed to parse event", "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(&event); err != nil {
				r.log.Error("Failed to handle event", "listing_id", event.ListingID, "error", err)
			}

		case <-ctx.Done():
			r.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}
