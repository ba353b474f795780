package redis

import (
	"context"
	"encoding/json"
	"time"

	"marketplace-client/internal/domain"

	"github.com/go-redis/redis/v8"
)

// AcceptedBidMessage is the pub/sub payload for one accepted bid.
type AcceptedBidMessage struct {
	ListingID   domain.ID        `json:"listing_id"`
	Bid         domain.BidRecord `json:"bid"`
	PublishedAt time.Time        `json:"published_at"`
}

type EventPublisherImpl struct {
	client  *redis.Client
	channel string
}

func NewEventPublisher(client *redis.Client, channel string) *EventPublisherImpl {
	return &EventPublisherImpl{client: client, channel: channel}
}

func (r *EventPublisherImpl) PublishAcceptedBid(ctx context.Context, listingID domain.ID, bid *domain.BidRecord) error {
	payload, err := json.Marshal(AcceptedBidMessage{
		ListingID:   listingID,
		Bid:         *bid,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}
