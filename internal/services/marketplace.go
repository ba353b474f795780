package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/shopspring/decimal"
)

// MarketAPI is the part of the marketplace REST client the facade drives.
type MarketAPI interface {
	domain.SnapshotFetcher
	domain.BidSubmitter
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Listing, error)
	CreateListing(ctx context.Context, req domain.CreateListingRequest) (*domain.Listing, error)
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)
	Buy(ctx context.Context, id domain.ID) (*domain.PurchaseResult, error)
	CloseAuction(ctx context.Context, id domain.ID) (*domain.CloseAuctionResult, error)
	MyProducts(ctx context.Context) ([]domain.Listing, error)
	MyBids(ctx context.Context) ([]domain.BidRecord, error)
	MyOrders(ctx context.Context) ([]domain.Order, error)
	AdminUsers(ctx context.Context) ([]domain.User, error)
	ApproveUser(ctx context.Context, userID domain.ID) (*domain.ApprovalResult, error)
}

// Dashboard is the signed-in user's activity. Products is only filled for
// sellers and admins.
type Dashboard struct {
	User     *domain.User       `json:"user,omitempty"`
	Orders   []domain.Order     `json:"orders"`
	Bids     []domain.BidRecord `json:"bids"`
	Products []domain.Listing   `json:"products,omitempty"`
}

type MarketplaceService struct {
	api     MarketAPI
	session *SessionService
	log     logger.Logger
}

func NewMarketplaceService(api MarketAPI, session *SessionService, log logger.Logger) *MarketplaceService {
	return &MarketplaceService{api: api, session: session, log: log}
}

func (s *MarketplaceService) Browse(ctx context.Context, filter domain.ProductFilter) ([]domain.Listing, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, domain.NewValidationError("min price is above max price")
	}
	return s.api.ListProducts(ctx, filter)
}

// Listing returns the listing with its bid history, newest first.
func (s *MarketplaceService) Listing(ctx context.Context, id domain.ID) (*domain.Snapshot, error) {
	return s.api.FetchSnapshot(ctx, id)
}

// PlaceBid is the one-shot form used outside a reconciler; nothing local
// changes until the stream reports the bid.
func (s *MarketplaceService) PlaceBid(ctx context.Context, id domain.ID, amount decimal.Decimal) (*domain.BidRecord, error) {
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("bid amount must be positive")
	}
	return s.api.PlaceBid(ctx, id, amount)
}

func (s *MarketplaceService) Buy(ctx context.Context, id domain.ID) (*domain.PurchaseResult, error) {
	result, err := s.api.Buy(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("Purchase completed", "listing_id", id, "transaction_id", result.TransactionID)
	return result, nil
}

func (s *MarketplaceService) CloseAuction(ctx context.Context, id domain.ID) (*domain.CloseAuctionResult, error) {
	result, err := s.api.CloseAuction(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info("Auction closed", "listing_id", id)
	return result, nil
}

// CreateListing uploads the local image files first and lists their URLs
// after any URLs already in the request.
func (s *MarketplaceService) CreateListing(ctx context.Context, req domain.CreateListingRequest,
	imagePaths []string) (*domain.Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	for _, path := range imagePaths {
		url, err := s.uploadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		req.Images = append(req.Images, url)
	}

	listing, err := s.api.CreateListing(ctx, req)
	if err != nil {
		return nil, err
	}
	s.log.Info("Listing created", "listing_id", listing.ID, "type", listing.ListingType, "images", len(listing.Images))
	return listing, nil
}

func (s *MarketplaceService) uploadFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	url, err := s.api.UploadImage(ctx, filepath.Base(path), f)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filepath.Base(path), err)
	}
	return url, nil
}

// Dashboard loads the user's orders, bids and products concurrently.
func (s *MarketplaceService) Dashboard(ctx context.Context) (*Dashboard, error) {
	dash := &Dashboard{}
	if s.session != nil {
		dash.User = s.session.CurrentUser()
	}
	wantProducts := dash.User == nil || dash.User.Role != domain.RoleBuyer

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	collect := func(err error) {
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		orders, err := s.api.MyOrders(ctx)
		dash.Orders = orders
		collect(err)
	}()
	go func() {
		defer wg.Done()
		bids, err := s.api.MyBids(ctx)
		dash.Bids = bids
		collect(err)
	}()
	if wantProducts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			products, err := s.api.MyProducts(ctx)
			if errors.Is(err, domain.ErrAuthenticationRequired) && dash.User == nil {
				// buyers are refused the seller view
				return
			}
			dash.Products = products
			collect(err)
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return dash, nil
}

// PendingUsers lists accounts still waiting for admin approval.
func (s *MarketplaceService) PendingUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.api.AdminUsers(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]domain.User, 0, len(users))
	for _, u := range users {
		if !u.IsApproved {
			pending = append(pending, u)
		}
	}
	return pending, nil
}

func (s *MarketplaceService) AllUsers(ctx context.Context) ([]domain.User, error) {
	return s.api.AdminUsers(ctx)
}

func (s *MarketplaceService) ApproveUser(ctx context.Context, userID domain.ID) (*domain.ApprovalResult, error) {
	if userID == "" {
		return nil, domain.NewValidationError("user id is required")
	}
	result, err := s.api.ApproveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.log.Info("User approved", "user_id", userID)
	return result, nil
}
