package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/internal/domain/repositories"
	"marketplace-client/pkg/logger"
)

// MirrorMessage is the frame pushed to local mirror websocket clients.
type MirrorMessage struct {
	Type      domain.UpdateKind `json:"type"`
	ListingID domain.ID         `json:"listing_id"`
	Bid       *domain.BidRecord `json:"bid,omitempty"`
	View      domain.View       `json:"view"`
	Error     string            `json:"error,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func NewMirrorMessage(listingID domain.ID, update domain.Update) MirrorMessage {
	msg := MirrorMessage{
		Type:      update.Kind,
		ListingID: listingID,
		Bid:       update.Bid,
		View:      update.View,
		Timestamp: time.Now().UTC(),
	}
	if update.Err != nil {
		msg.Error = domain.Reason(update.Err)
	}
	return msg
}

// MirrorViewKind tags the first frame a mirror client receives.
const MirrorViewKind domain.UpdateKind = "view"

func NewViewMessage(view domain.View) MirrorMessage {
	return MirrorMessage{
		Type:      MirrorViewKind,
		ListingID: view.ListingID,
		View:      view,
		Error:     view.LastError,
		Timestamp: time.Now().UTC(),
	}
}

// UpdateDispatcher forwards reconciler updates to the optional downstream
// sinks. A nil sink is skipped.
type UpdateDispatcher struct {
	broadcaster       domain.ListingBroadcaster
	connectionManager domain.ConnectionManager
	publisher         domain.BidEventPublisher
	archive           repositories.BidArchive
	cache             domain.ViewCache
	log               logger.Logger
}

func NewUpdateDispatcher(broadcaster domain.ListingBroadcaster, connectionManager domain.ConnectionManager,
	publisher domain.BidEventPublisher, archive repositories.BidArchive, cache domain.ViewCache,
	log logger.Logger) *UpdateDispatcher {
	return &UpdateDispatcher{
		broadcaster:       broadcaster,
		connectionManager: connectionManager,
		publisher:         publisher,
		archive:           archive,
		cache:             cache,
		log:               log,
	}
}

// HandleUpdate fans one update out. Every sink is attempted; the failures
// are joined into the returned error.
func (d *UpdateDispatcher) HandleUpdate(ctx context.Context, listingID domain.ID, update domain.Update) error {
	d.log.Debug("Dispatching update", "listing_id", listingID, "kind", update.Kind)

	var errs []error
	if err := d.storeView(ctx, &update.View); err != nil {
		errs = append(errs, err)
	}

	switch update.Kind {
	case domain.UpdateBidAccepted:
		errs = append(errs, d.handleBidAccepted(ctx, listingID, update)...)
	case domain.UpdateSnapshotLoaded, domain.UpdateResynced:
		errs = append(errs, d.archiveLedger(ctx, listingID, update.View.Ledger)...)
	case domain.UpdateClosed:
		return errors.Join(append(errs, d.handleClosed(ctx, listingID, update))...)
	}

	if err := d.broadcast(ctx, listingID, update); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *UpdateDispatcher) handleBidAccepted(ctx context.Context, listingID domain.ID, update domain.Update) []error {
	if update.Bid == nil {
		return nil
	}
	var errs []error
	if d.publisher != nil {
		if err := d.publisher.PublishAcceptedBid(ctx, listingID, update.Bid); err != nil {
			d.log.Error("Failed to publish accepted bid", "listing_id", listingID, "error", err)
			errs = append(errs, fmt.Errorf("publish: %w", err))
		}
	}
	if d.archive != nil {
		if err := d.archive.SaveObservedBid(ctx, listingID, update.Bid); err != nil {
			d.log.Error("Failed to archive bid", "listing_id", listingID, "error", err)
			errs = append(errs, fmt.Errorf("archive: %w", err))
		}
	}
	return errs
}

// archiveLedger stores the snapshot history; the archive ignores bids it
// already holds.
func (d *UpdateDispatcher) archiveLedger(ctx context.Context, listingID domain.ID, ledger []domain.BidRecord) []error {
	if d.archive == nil {
		return nil
	}
	var errs []error
	for i := range ledger {
		if err := d.archive.SaveObservedBid(ctx, listingID, &ledger[i]); err != nil {
			d.log.Error("Failed to archive snapshot bid", "listing_id", listingID, "error", err)
			errs = append(errs, fmt.Errorf("archive: %w", err))
			break
		}
	}
	return errs
}

func (d *UpdateDispatcher) handleClosed(ctx context.Context, listingID domain.ID, update domain.Update) error {
	// Final broadcast
	if err := d.broadcast(ctx, listingID, update); err != nil {
		return err
	}

	if d.connectionManager == nil {
		return nil
	}
	if err := d.connectionManager.CloseAndUnregisterConnections(listingID); err != nil {
		d.log.Error("Failed to finalize mirror connections", "listing_id", listingID, "error", err)
		return err
	}
	return nil
}

func (d *UpdateDispatcher) storeView(ctx context.Context, view *domain.View) error {
	if d.cache == nil {
		return nil
	}
	if err := d.cache.StoreView(ctx, view); err != nil {
		d.log.Warn("Failed to cache view", "listing_id", view.ListingID, "error", err)
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

func (d *UpdateDispatcher) broadcast(ctx context.Context, listingID domain.ID, update domain.Update) error {
	if d.broadcaster == nil {
		return nil
	}
	if err := d.broadcaster.BroadcastToListing(ctx, listingID, NewMirrorMessage(listingID, update)); err != nil {
		d.log.Error("Failed to broadcast update", "listing_id", listingID, "error", err)
		return fmt.Errorf("broadcast: %w", err)
	}
	return nil
}
