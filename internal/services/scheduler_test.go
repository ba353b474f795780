package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/stretchr/testify/require"
)

type countingResyncer struct {
	mu    sync.Mutex
	calls map[domain.ID]int
}

func (r *countingResyncer) ResyncListing(_ context.Context, id domain.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[id]++
	return nil
}

func (r *countingResyncer) count(id domain.ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[id]
}

func TestCronResyncSchedulerRejectsBadSchedule(t *testing.T) {
	_, err := NewCronResyncScheduler("every now and then", &countingResyncer{}, logger.NewNop())
	require.Error(t, err)

	for _, schedule := range []string{"@every 5m", "*/10 * * * *", "0 */5 * * * *"} {
		_, err := NewCronResyncScheduler(schedule, &countingResyncer{}, logger.NewNop())
		require.NoError(t, err, schedule)
	}
}

func TestCronResyncSchedulerRunsScheduledListings(t *testing.T) {
	resyncer := &countingResyncer{calls: make(map[domain.ID]int)}
	s, err := NewCronResyncScheduler("@every 1s", resyncer, logger.NewNop())
	require.NoError(t, err)

	require.NoError(t, s.ScheduleResync("7"))
	require.NoError(t, s.ScheduleResync("7"))
	require.NoError(t, s.ScheduleResync("8"))
	require.NoError(t, s.CancelResync("8"))
	require.NoError(t, s.CancelResync("unknown"))
	require.Equal(t, []domain.ID{"7"}, s.Scheduled())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	require.Eventually(t, func() bool { return resyncer.count("7") > 0 }, 3*time.Second, 50*time.Millisecond)
	require.Zero(t, resyncer.count("8"))
}

func TestCronResyncSchedulerSkipsAfterCancel(t *testing.T) {
	resyncer := &countingResyncer{calls: make(map[domain.ID]int)}
	s, err := NewCronResyncScheduler("@every 5m", resyncer, logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	cancel()

	s.runResync("7")
	require.Zero(t, resyncer.count("7"))
	require.NoError(t, s.Stop())
}
