package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace-client/internal/domain"

	"github.com/go-redis/redis/v8"
)

// RedisViewCache keeps the latest reconciled view of each listing in a hash,
// so other processes can read the highest bid without a websocket.
type RedisViewCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisViewCache(client *redis.Client, keyPrefix string, ttl time.Duration) *RedisViewCache {
	return &RedisViewCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *RedisViewCache) key(listingID domain.ID) string {
	return fmt.Sprintf("%slisting:%s", r.keyPrefix, listingID)
}

func (r *RedisViewCache) StoreView(ctx context.Context, view *domain.View) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("encode view: %w", err)
	}

	key := r.key(view.ListingID)
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, key,
		"highest_bid", view.HighestBid.String(),
		"minimum_next_bid", view.MinimumNextBid.String(),
		"state", view.State.String(),
		"stream_state", view.StreamState.String(),
		"ledger_size", len(view.Ledger),
		"view", payload,
		"last_updated", view.UpdatedAt.Unix(),
	)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisViewCache) LoadView(ctx context.Context, listingID domain.ID) (*domain.View, error) {
	payload, err := r.client.HGet(ctx, r.key(listingID), "view").Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("cached view %s: %w", listingID, domain.ErrNotFound)
		}
		return nil, err
	}

	var view domain.View
	if err := json.Unmarshal(payload, &view); err != nil {
		return nil, fmt.Errorf("decode cached view %s: %w", listingID, err)
	}
	return &view, nil
}

// HighestBid reads just the highest-bid field without decoding the view.
func (r *RedisViewCache) HighestBid(ctx context.Context, listingID domain.ID) (string, error) {
	v, err := r.client.HGet(ctx, r.key(listingID), "highest_bid").Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("cached view %s: %w", listingID, domain.ErrNotFound)
	}
	return v, err
}
