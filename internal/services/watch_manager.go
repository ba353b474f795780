package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/shopspring/decimal"
)

// ReconcilerFactory builds a fresh reconciler for one watched listing.
type ReconcilerFactory func() *Reconciler

// WatchSummary is the short form of a watched listing's state.
type WatchSummary struct {
	ListingID      domain.ID              `json:"listing_id"`
	Title          string                 `json:"title,omitempty"`
	State          domain.ReconcilerState `json:"state"`
	StreamState    domain.StreamState     `json:"stream_state"`
	HighestBid     decimal.Decimal        `json:"highest_bid"`
	MinimumNextBid decimal.Decimal        `json:"minimum_next_bid"`
	LedgerSize     int                    `json:"ledger_size"`
}

type watch struct {
	reconciler *Reconciler
	sub        *Subscription
	done       chan struct{}
}

// WatchManager keeps one reconciler per watched listing and pumps each
// reconciler's updates into the dispatcher.
type WatchManager struct {
	newReconciler ReconcilerFactory
	dispatcher    *UpdateDispatcher
	scheduler     domain.ResyncScheduler
	subBuffer     int
	dispatchWait  time.Duration
	log           logger.Logger

	mu      sync.RWMutex
	watches map[domain.ID]*watch
	closed  bool
}

func NewWatchManager(factory ReconcilerFactory, dispatcher *UpdateDispatcher, subBuffer int,
	log logger.Logger) *WatchManager {
	return &WatchManager{
		newReconciler: factory,
		dispatcher:    dispatcher,
		subBuffer:     subBuffer,
		dispatchWait:  10 * time.Second,
		log:           log,
		watches:       make(map[domain.ID]*watch),
	}
}

// SetResyncScheduler makes Watch and Unwatch keep the periodic resync in step.
func (m *WatchManager) SetResyncScheduler(scheduler domain.ResyncScheduler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduler = scheduler
}

// Watch starts reconciling a listing. Watching an already watched listing
// is a no-op.
func (m *WatchManager) Watch(listingID domain.ID) error {
	if listingID == "" {
		return domain.NewValidationError("listing id is required")
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return domain.ErrReconcilerStopped
	}
	if _, ok := m.watches[listingID]; ok {
		m.mu.Unlock()
		return nil
	}
	rec := m.newReconciler()
	w := &watch{
		reconciler: rec,
		sub:        rec.Subscribe(m.subBuffer),
		done:       make(chan struct{}),
	}
	m.watches[listingID] = w
	scheduler := m.scheduler
	m.mu.Unlock()

	go m.pump(listingID, w)

	if err := rec.Initialize(listingID); err != nil {
		m.remove(listingID)
		return fmt.Errorf("watch %s: %w", listingID, err)
	}
	if scheduler != nil {
		if err := scheduler.ScheduleResync(listingID); err != nil {
			m.log.Warn("Failed to schedule resync", "listing_id", listingID, "error", err)
		}
	}

	m.log.Info("Watching listing", "listing_id", listingID)
	return nil
}

// Unwatch tears the listing's reconciler down and waits until its last
// update has been dispatched.
func (m *WatchManager) Unwatch(listingID domain.ID) error {
	m.mu.RLock()
	_, ok := m.watches[listingID]
	scheduler := m.scheduler
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unwatch %s: %w", listingID, domain.ErrNotFound)
	}

	if scheduler != nil {
		if err := scheduler.CancelResync(listingID); err != nil {
			m.log.Warn("Failed to cancel resync", "listing_id", listingID, "error", err)
		}
	}
	m.remove(listingID)
	m.log.Info("Stopped watching listing", "listing_id", listingID)
	return nil
}

func (m *WatchManager) remove(listingID domain.ID) {
	m.mu.Lock()
	w, ok := m.watches[listingID]
	delete(m.watches, listingID)
	m.mu.Unlock()
	if !ok {
		return
	}

	w.reconciler.Teardown()
	w.reconciler.Close()
	<-w.done
}

func (m *WatchManager) pump(listingID domain.ID, w *watch) {
	defer close(w.done)
	for update := range w.sub.Updates() {
		if m.dispatcher == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), m.dispatchWait)
		if err := m.dispatcher.HandleUpdate(ctx, listingID, update); err != nil {
			m.log.Warn("Update dispatch incomplete", "listing_id", listingID, "kind", update.Kind, "error", err)
		}
		cancel()
	}
	if dropped := w.sub.Dropped(); dropped > 0 {
		m.log.Warn("Dispatcher lagged behind reconciler", "listing_id", listingID, "dropped", dropped)
	}
}

// Reconciler returns the reconciler of a watched listing.
func (m *WatchManager) Reconciler(listingID domain.ID) (*Reconciler, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.watches[listingID]
	if !ok {
		return nil, fmt.Errorf("listing %s is not watched: %w", listingID, domain.ErrNotFound)
	}
	return w.reconciler, nil
}

func (m *WatchManager) View(listingID domain.ID) (domain.View, error) {
	rec, err := m.Reconciler(listingID)
	if err != nil {
		return domain.View{}, err
	}
	return rec.View(), nil
}

// List returns every watched listing ordered by id.
func (m *WatchManager) List() []WatchSummary {
	m.mu.RLock()
	summaries := make([]WatchSummary, 0, len(m.watches))
	for id, w := range m.watches {
		view := w.reconciler.View()
		summary := WatchSummary{
			ListingID:      id,
			State:          view.State,
			StreamState:    view.StreamState,
			HighestBid:     view.HighestBid,
			MinimumNextBid: view.MinimumNextBid,
			LedgerSize:     len(view.Ledger),
		}
		if view.Listing != nil {
			summary.Title = view.Listing.Title
		}
		summaries = append(summaries, summary)
	}
	m.mu.RUnlock()

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ListingID < summaries[j].ListingID
	})
	return summaries
}

// ResyncListing merges a fresh snapshot into a watched listing's view.
func (m *WatchManager) ResyncListing(ctx context.Context, listingID domain.ID) error {
	rec, err := m.Reconciler(listingID)
	if err != nil {
		return err
	}
	return rec.Resync(ctx)
}

// ResyncAll resyncs every live listing. Listings without a loaded snapshot
// are skipped.
func (m *WatchManager) ResyncAll(ctx context.Context) error {
	var errs []error
	for _, summary := range m.List() {
		err := m.ResyncListing(ctx, summary.ListingID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrNoActiveListing):
			m.log.Debug("Skipping resync of inactive listing", "listing_id", summary.ListingID)
		default:
			errs = append(errs, fmt.Errorf("%s: %w", summary.ListingID, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe attaches an extra listener to a watched listing.
func (m *WatchManager) Subscribe(listingID domain.ID, buffer int) (*Subscription, error) {
	rec, err := m.Reconciler(listingID)
	if err != nil {
		return nil, err
	}
	return rec.Subscribe(buffer), nil
}

// Close stops every watch. Later Watch calls fail.
func (m *WatchManager) Close() {
	m.mu.Lock()
	m.closed = true
	ids := make([]domain.ID, 0, len(m.watches))
	for id := range m.watches {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.remove(id)
	}
}
