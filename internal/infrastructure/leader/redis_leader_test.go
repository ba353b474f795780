package leader

import (
	"context"
	"testing"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/internal/mocks"
	"marketplace-client/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func newElections(t *testing.T) (*miniredis.Miniredis, *RedisLeaderElection, *RedisLeaderElection) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	a := NewRedisLeaderElection(client, "mc:", "bidwatch-a", 3*time.Second, logger.NewNop())
	b := NewRedisLeaderElection(client, "mc:", "bidwatch-b", 3*time.Second, logger.NewNop())
	return mr, a, b
}

func TestCampaignSingleLeader(t *testing.T) {
	mr, a, b := newElections(t)
	ctx := context.Background()

	won, err := a.Campaign(ctx)
	require.NoError(t, err)
	require.True(t, won)

	won, err = b.Campaign(ctx)
	require.NoError(t, err)
	require.False(t, won)
	require.False(t, b.IsLeader())

	// the holder extends its own lease
	won, err = a.Campaign(ctx)
	require.NoError(t, err)
	require.True(t, won)
	require.Equal(t, "bidwatch-a", mustGet(t, mr, "mc:leader:publisher"))

	// a follower cannot release someone else's lease
	require.NoError(t, b.ReleaseLeadership(ctx))
	require.True(t, mr.Exists("mc:leader:publisher"))

	require.NoError(t, a.ReleaseLeadership(ctx))
	require.False(t, a.IsLeader())

	won, err = b.Campaign(ctx)
	require.NoError(t, err)
	require.True(t, won)
}

func TestLeaseExpires(t *testing.T) {
	mr, a, b := newElections(t)
	ctx := context.Background()

	_, err := a.Campaign(ctx)
	require.NoError(t, err)
	mr.FastForward(4 * time.Second)

	won, err := b.Campaign(ctx)
	require.NoError(t, err)
	require.True(t, won)

	won, err = a.Campaign(ctx)
	require.NoError(t, err)
	require.False(t, won)
	require.False(t, a.IsLeader())
}

func TestRunReleasesOnCancel(t *testing.T) {
	mr, a, _ := newElections(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(done)
	}()
	require.Eventually(t, a.IsLeader, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	require.False(t, a.IsLeader())
	require.False(t, mr.Exists("mc:leader:publisher"))
}

func TestGatedPublisher(t *testing.T) {
	_, a, _ := newElections(t)
	ctrl := gomock.NewController(t)
	next := mocks.NewMockBidEventPublisher(ctrl)
	gated := NewGatedPublisher(next, a)
	bid := &domain.BidRecord{Username: "ana"}

	// not leading yet: nothing reaches the channel
	require.NoError(t, gated.PublishAcceptedBid(context.Background(), "7", bid))

	_, err := a.Campaign(context.Background())
	require.NoError(t, err)
	next.EXPECT().PublishAcceptedBid(gomock.Any(), domain.ID("7"), bid).Return(nil)
	require.NoError(t, gated.PublishAcceptedBid(context.Background(), "7", bid))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
