package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ListingResyncer is what the scheduler triggers on each tick.
type ListingResyncer interface {
	ResyncListing(ctx context.Context, listingID domain.ID) error
}

var _ domain.ResyncScheduler = (*CronResyncScheduler)(nil)

// CronResyncScheduler runs one cron entry per scheduled listing. Schedules
// are cron expressions with an optional seconds field, or descriptors such
// as "@every 5m".
type CronResyncScheduler struct {
	cron     *cron.Cron
	schedule string
	resyncer ListingResyncer
	timeout  time.Duration
	log      logger.Logger

	mu      sync.Mutex
	ctx     context.Context
	entries map[domain.ID]cron.EntryID
}

func NewCronResyncScheduler(schedule string, resyncer ListingResyncer, log logger.Logger) (*CronResyncScheduler, error) {
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("resync schedule %q: %w", schedule, err)
	}
	return &CronResyncScheduler{
		cron:     cron.New(cron.WithParser(parser)),
		schedule: schedule,
		resyncer: resyncer,
		timeout:  30 * time.Second,
		log:      log,
		ctx:      context.Background(),
		entries:  make(map[domain.ID]cron.EntryID),
	}, nil
}

func (s *CronResyncScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting resync scheduler", "schedule", s.schedule)

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	return nil
}

func (s *CronResyncScheduler) Stop() error {
	s.log.Info("Stopping resync scheduler")
	<-s.cron.Stop().Done()
	return nil
}

// ScheduleResync registers the listing; scheduling it twice keeps one entry.
func (s *CronResyncScheduler) ScheduleResync(listingID domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[listingID]; ok {
		return nil
	}
	id, err := s.cron.AddFunc(s.schedule, func() {
		s.runResync(listingID)
	})
	if err != nil {
		return fmt.Errorf("schedule resync for %s: %w", listingID, err)
	}
	s.entries[listingID] = id
	return nil
}

func (s *CronResyncScheduler) CancelResync(listingID domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[listingID]
	if !ok {
		return nil
	}
	s.cron.Remove(id)
	delete(s.entries, listingID)
	return nil
}

// Scheduled lists the listings with an active entry.
func (s *CronResyncScheduler) Scheduled() []domain.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]domain.ID, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

func (s *CronResyncScheduler) runResync(listingID domain.ID) {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	s.log.Debug("Running scheduled resync", "listing_id", listingID)
	if err := s.resyncer.ResyncListing(ctx, listingID); err != nil {
		s.log.Warn("Scheduled resync failed", "listing_id", listingID, "error", err)
		return
	}
	s.log.Info("Listing resynced", "listing_id", listingID)
}
