package marketapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"marketplace-client/internal/domain"
)

// FetchSnapshot loads a listing and, for auctions, its bid history.
func (c *Client) FetchSnapshot(ctx context.Context, id domain.ID) (*domain.Snapshot, error) {
	listing, err := c.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := &domain.Snapshot{Listing: listing}
	if listing.IsAuction() {
		bids, err := c.GetBids(ctx, id)
		if err != nil {
			return nil, err
		}
		snap.Bids = bids
	}
	snap.FetchedAt = domain.NewTimestamp(time.Now())
	return snap, nil
}

// StreamBaseURL derives the websocket origin from the API base: http maps to
// ws and https to wss. The stream is mounted at the host root, so any API
// path prefix is dropped.
func StreamBaseURL(apiBase string) (string, error) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", fmt.Errorf("parse api base: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("cannot derive stream url from scheme %q", u.Scheme)
	}
	u.Path, u.RawPath, u.RawQuery, u.Fragment = "", "", "", ""
	return u.String(), nil
}
