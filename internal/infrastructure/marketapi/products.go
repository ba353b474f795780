package marketapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"marketplace-client/internal/domain"

	"github.com/shopspring/decimal"
)

func (c *Client) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Listing, error) {
	q := url.Values{}
	if filter.Category != "" {
		q.Set("category", filter.Category)
	}
	if filter.ListingType != "" {
		q.Set("listing_type", string(filter.ListingType))
	}
	if filter.MinPrice != nil {
		q.Set("min_price", filter.MinPrice.String())
	}
	if filter.MaxPrice != nil {
		q.Set("max_price", filter.MaxPrice.String())
	}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}

	var listings []domain.Listing
	err := c.do(ctx, request{op: "list products", method: http.MethodGet, path: []string{"products"}, query: q}, &listings)
	return listings, err
}

func (c *Client) GetProduct(ctx context.Context, id domain.ID) (*domain.Listing, error) {
	var listing domain.Listing
	err := c.do(ctx, request{op: "get product", method: http.MethodGet, path: []string{"products", id.String()}}, &listing)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetBids returns the bid history of a listing, newest first.
func (c *Client) GetBids(ctx context.Context, id domain.ID) ([]domain.BidRecord, error) {
	var bids []domain.BidRecord
	err := c.do(ctx, request{op: "get bids", method: http.MethodGet, path: []string{"products", id.String(), "bids"}}, &bids)
	return bids, err
}

func (c *Client) CreateListing(ctx context.Context, req domain.CreateListingRequest) (*domain.Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var listing domain.Listing
	err := c.do(ctx, request{op: "create listing", method: http.MethodPost, path: []string{"products"}, body: req}, &listing)
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

type bidRequest struct {
	Amount json.Number `json:"amount"`
}

// PlaceBid submits a bid. The returned record is the server's echo; callers
// tracking a live auction should wait for the stream instead of using it.
func (c *Client) PlaceBid(ctx context.Context, id domain.ID, amount decimal.Decimal) (*domain.BidRecord, error) {
	var bid domain.BidRecord
	err := c.do(ctx, request{
		op:     "place bid",
		method: http.MethodPost,
		path:   []string{"products", id.String(), "bid"},
		body:   bidRequest{Amount: json.Number(amount.String())},
	}, &bid)
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func (c *Client) Buy(ctx context.Context, id domain.ID) (*domain.PurchaseResult, error) {
	var result domain.PurchaseResult
	err := c.do(ctx, request{op: "buy", method: http.MethodPost, path: []string{"products", id.String(), "buy"}}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CloseAuction(ctx context.Context, id domain.ID) (*domain.CloseAuctionResult, error) {
	var result domain.CloseAuctionResult
	err := c.do(ctx, request{op: "close auction", method: http.MethodPost, path: []string{"products", id.String(), "close_auction"}}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}
