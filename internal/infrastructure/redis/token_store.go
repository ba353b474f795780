package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisTokenStore persists the session token under a profile key so several
// client processes on one host share a login.
type RedisTokenStore struct {
	client *redis.Client
	key    string
}

func NewRedisTokenStore(client *redis.Client, keyPrefix, profile string) *RedisTokenStore {
	if profile == "" {
		profile = "default"
	}
	return &RedisTokenStore{client: client, key: fmt.Sprintf("%ssession:%s:token", keyPrefix, profile)}
}

func (r *RedisTokenStore) LoadToken(ctx context.Context) (string, error) {
	token, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	return token, nil
}

func (r *RedisTokenStore) SaveToken(ctx context.Context, token string) error {
	return r.client.Set(ctx, r.key, token, 0).Err()
}

func (r *RedisTokenStore) ClearToken(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
