package mysql

import (
	"context"
	"database/sql"
	"time"

	"marketplace-client/internal/domain"
)

// MySQLBidRepository archives every bid a reconciler accepted. Amounts are
// strictly increasing per listing, so (listing_id, amount) identifies a bid
// and replays after a resync are ignored.
type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) SaveObservedBid(ctx context.Context, listingID domain.ID, bid *domain.BidRecord) error {
	query := `
        INSERT IGNORE INTO observed_bids (listing_id, bid_id, user_id, username, amount, bid_time, observed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		listingID.String(), bid.ID.String(), bid.UserID.String(), bid.Username,
		bid.Amount.StringFixed(2), bid.Timestamp.UTC(), time.Now().UTC())
	return err
}

// ListObservedBids returns up to limit archived bids, newest first.
func (r *MySQLBidRepository) ListObservedBids(ctx context.Context, listingID domain.ID, limit int) ([]domain.BidRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
        SELECT bid_id, user_id, username, amount, bid_time
        FROM observed_bids
        WHERE listing_id = ?
        ORDER BY amount DESC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, listingID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bids []domain.BidRecord
	for rows.Next() {
		var (
			bid           domain.BidRecord
			bidID, userID string
			bidTime       time.Time
		)
		if err := rows.Scan(&bidID, &userID, &bid.Username, &bid.Amount, &bidTime); err != nil {
			return nil, err
		}
		bid.ID = domain.ID(bidID)
		bid.UserID = domain.ID(userID)
		bid.ProductID = listingID
		bid.Timestamp = domain.NewTimestamp(bidTime)
		bids = append(bids, bid)
	}

	return bids, rows.Err()
}
