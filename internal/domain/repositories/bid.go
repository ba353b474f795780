package repositories

//go:generate mockgen -destination=../../mocks/repositories_mocks.go -package=mocks marketplace-client/internal/domain/repositories BidArchive

import (
	"context"

	"marketplace-client/internal/domain"
)

// BidArchive keeps every bid the watcher accepted from the stream.
type BidArchive interface {
	SaveObservedBid(ctx context.Context, listingID domain.ID, bid *domain.BidRecord) error
	ListObservedBids(ctx context.Context, listingID domain.ID, limit int) ([]domain.BidRecord, error)
}
