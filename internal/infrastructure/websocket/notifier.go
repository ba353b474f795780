package websocket

import (
	"context"

	"marketplace-client/internal/domain"
)

// Notifier adapts a ConnectionManager to the ListingBroadcaster sink.
type Notifier struct {
	connManager domain.ConnectionManager
}

func NewNotifier(connManager domain.ConnectionManager) *Notifier {
	return &Notifier{connManager: connManager}
}

func (n *Notifier) BroadcastToListing(ctx context.Context, listingID domain.ID, message interface{}) error {
	return n.connManager.BroadcastToListing(listingID, message)
}
