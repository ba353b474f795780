package domain

import "context"

// Scheduler interface
type ResyncScheduler interface {
	ScheduleResync(listingID ID) error
	CancelResync(listingID ID) error
	Start(ctx context.Context) error
	Stop() error
}
