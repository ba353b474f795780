package leader

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/go-redis/redis/v8"
)

var (
	// Use Lua scripts so that only the holder can touch the lease
	extendScript = redis.NewScript(`
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("PEXPIRE", KEYS[1], ARGV[2])
        else
            return 0
        end
    `)
	releaseScript = redis.NewScript(`
        if redis.call("GET", KEYS[1]) == ARGV[1] then
            return redis.call("DEL", KEYS[1])
        else
            return 0
        end
    `)
)

// RedisLeaderElection holds a redis lease naming the one bidwatch instance
// that publishes accepted bids.
type RedisLeaderElection struct {
	client     *redis.Client
	key        string
	instanceID string
	ttl        time.Duration
	log        logger.Logger
	leading    atomic.Bool
}

func NewRedisLeaderElection(client *redis.Client, keyPrefix, instanceID string, ttl time.Duration,
	log logger.Logger) *RedisLeaderElection {
	return &RedisLeaderElection{
		client:     client,
		key:        keyPrefix + "leader:publisher",
		instanceID: instanceID,
		ttl:        ttl,
		log:        log,
	}
}

func (r *RedisLeaderElection) InstanceID() string {
	return r.instanceID
}

// IsLeader reports the outcome of the latest campaign round.
func (r *RedisLeaderElection) IsLeader() bool {
	return r.leading.Load()
}

// Campaign takes the lease if it is free and extends it if already held.
func (r *RedisLeaderElection) Campaign(ctx context.Context) (bool, error) {
	acquired, err := r.client.SetNX(ctx, r.key, r.instanceID, r.ttl).Result()
	if err != nil {
		r.setLeading(false)
		return false, err
	}
	if !acquired {
		extended, err := extendScript.Run(ctx, r.client, []string{r.key}, r.instanceID, r.ttl.Milliseconds()).Int64()
		if err != nil {
			r.setLeading(false)
			return false, err
		}
		acquired = extended == 1
	}
	r.setLeading(acquired)
	return acquired, nil
}

func (r *RedisLeaderElection) setLeading(leading bool) {
	if r.leading.Swap(leading) != leading {
		if leading {
			r.log.Info("Became publishing leader", "instance_id", r.instanceID)
		} else {
			r.log.Info("Lost publishing leadership", "instance_id", r.instanceID)
		}
	}
}

// Run campaigns every third of the TTL until ctx is done, then releases
// the lease.
func (r *RedisLeaderElection) Run(ctx context.Context) {
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		if _, err := r.Campaign(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.log.Error("Failed to attempt leadership", "error", err)
		}
		select {
		case <-ctx.Done():
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := r.ReleaseLeadership(releaseCtx); err != nil {
				r.log.Error("Failed to release leadership", "error", err)
			}
			cancel()
			return
		case <-ticker.C:
		}
	}
}

func (r *RedisLeaderElection) ReleaseLeadership(ctx context.Context) error {
	r.setLeading(false)
	return releaseScript.Run(ctx, r.client, []string{r.key}, r.instanceID).Err()
}

// GatedPublisher drops publishes while this instance is not the leader.
type GatedPublisher struct {
	next     domain.BidEventPublisher
	election *RedisLeaderElection
}

func NewGatedPublisher(next domain.BidEventPublisher, election *RedisLeaderElection) *GatedPublisher {
	return &GatedPublisher{next: next, election: election}
}

func (g *GatedPublisher) PublishAcceptedBid(ctx context.Context, listingID domain.ID, bid *domain.BidRecord) error {
	if !g.election.IsLeader() {
		return nil
	}
	return g.next.PublishAcceptedBid(ctx, listingID, bid)
}
