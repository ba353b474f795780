package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeMarketAPI struct {
	mu          sync.Mutex
	uploads     map[string]string
	created     *domain.CreateListingRequest
	productsErr error
	users       []domain.User
	calls       []string
}

func (f *fakeMarketAPI) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
}

func (f *fakeMarketAPI) called(op string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == op {
			return true
		}
	}
	return false
}

func (f *fakeMarketAPI) FetchSnapshot(_ context.Context, id domain.ID) (*domain.Snapshot, error) {
	f.record("snapshot")
	return directSnapshot(id), nil
}

func (f *fakeMarketAPI) PlaceBid(_ context.Context, id domain.ID, amount decimal.Decimal) (*domain.BidRecord, error) {
	f.record("bid")
	return &domain.BidRecord{ProductID: id, Amount: amount}, nil
}

func (f *fakeMarketAPI) ListProducts(context.Context, domain.ProductFilter) ([]domain.Listing, error) {
	f.record("list")
	return []domain.Listing{{ID: "1"}}, nil
}

func (f *fakeMarketAPI) CreateListing(_ context.Context, req domain.CreateListingRequest) (*domain.Listing, error) {
	f.record("create")
	f.created = &req
	return &domain.Listing{ID: "42", Title: req.Title, ListingType: req.ListingType, Images: req.Images}, nil
}

func (f *fakeMarketAPI) UploadImage(_ context.Context, filename string, r io.Reader) (string, error) {
	f.record("upload")
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads[filename] = string(body)
	return "/uploads/" + filename, nil
}

func (f *fakeMarketAPI) Buy(_ context.Context, id domain.ID) (*domain.PurchaseResult, error) {
	f.record("buy")
	return &domain.PurchaseResult{Message: "Purchase successful", TransactionID: "900"}, nil
}

func (f *fakeMarketAPI) CloseAuction(context.Context, domain.ID) (*domain.CloseAuctionResult, error) {
	f.record("close")
	return &domain.CloseAuctionResult{Message: "Auction closed", WinnerID: "3"}, nil
}

func (f *fakeMarketAPI) MyProducts(context.Context) ([]domain.Listing, error) {
	f.record("products")
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return []domain.Listing{{ID: "42"}}, nil
}

func (f *fakeMarketAPI) MyBids(context.Context) ([]domain.BidRecord, error) {
	f.record("bids")
	return []domain.BidRecord{bid("ana", 120, 1)}, nil
}

func (f *fakeMarketAPI) MyOrders(context.Context) ([]domain.Order, error) {
	f.record("orders")
	return []domain.Order{{ID: "900", Status: "completed"}}, nil
}

func (f *fakeMarketAPI) AdminUsers(context.Context) ([]domain.User, error) {
	f.record("users")
	return f.users, nil
}

func (f *fakeMarketAPI) ApproveUser(context.Context, domain.ID) (*domain.ApprovalResult, error) {
	f.record("approve")
	return &domain.ApprovalResult{Message: "User approved"}, nil
}

func newFakeMarketAPI() *fakeMarketAPI {
	return &fakeMarketAPI{uploads: make(map[string]string)}
}

func TestCreateListingUploadsImagesFirst(t *testing.T) {
	api := newFakeMarketAPI()
	svc := NewMarketplaceService(api, nil, logger.NewNop())

	dir := t.TempDir()
	img := filepath.Join(dir, "watch.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpeg-bytes"), 0o600))

	start, inc := decimal.NewFromInt(100), decimal.NewFromInt(10)
	listing, err := svc.CreateListing(context.Background(), domain.CreateListingRequest{
		Title:           "Vintage watch",
		Description:     "Runs fine",
		Category:        "watches",
		ListingType:     domain.ListingAuction,
		Images:          []string{"https://cdn.example.com/a.jpg"},
		StartBid:        &start,
		MinBidIncrement: &inc,
	}, []string{img})
	require.NoError(t, err)

	require.Equal(t, domain.ID("42"), listing.ID)
	require.Equal(t, "jpeg-bytes", api.uploads["watch.jpg"])
	require.Equal(t, []string{"https://cdn.example.com/a.jpg", "/uploads/watch.jpg"}, api.created.Images)
}

func TestCreateListingValidatesBeforeUploading(t *testing.T) {
	api := newFakeMarketAPI()
	svc := NewMarketplaceService(api, nil, logger.NewNop())

	_, err := svc.CreateListing(context.Background(), domain.CreateListingRequest{
		Title: "Lamp", Description: "Brass", Category: "home", ListingType: domain.ListingDirect,
	}, []string{"/does/not/matter.png"})
	require.ErrorIs(t, err, domain.ErrValidationRejected)
	require.False(t, api.called("upload"))
	require.False(t, api.called("create"))

	price := decimal.NewFromInt(25)
	_, err = svc.CreateListing(context.Background(), domain.CreateListingRequest{
		Title: "Lamp", Description: "Brass", Category: "home", ListingType: domain.ListingDirect, Price: &price,
	}, []string{filepath.Join(t.TempDir(), "missing.png")})
	require.Error(t, err)
	require.False(t, api.called("create"))
}

func TestDashboardByRole(t *testing.T) {
	t.Run("seller_gets_products", func(t *testing.T) {
		api := newFakeMarketAPI()
		session, _, _ := newTestSession(t)
		session.setUser(&domain.User{ID: "3", Username: "ana", Role: domain.RoleSeller})
		svc := NewMarketplaceService(api, session, logger.NewNop())

		dash, err := svc.Dashboard(context.Background())
		require.NoError(t, err)
		require.Equal(t, "ana", dash.User.Username)
		require.Len(t, dash.Orders, 1)
		require.Len(t, dash.Bids, 1)
		require.Len(t, dash.Products, 1)
	})

	t.Run("buyer_skips_products", func(t *testing.T) {
		api := newFakeMarketAPI()
		session, _, _ := newTestSession(t)
		session.setUser(&domain.User{ID: "5", Username: "bo", Role: domain.RoleBuyer})
		svc := NewMarketplaceService(api, session, logger.NewNop())

		dash, err := svc.Dashboard(context.Background())
		require.NoError(t, err)
		require.Empty(t, dash.Products)
		require.False(t, api.called("products"))
	})

	t.Run("unknown_user_refused_seller_view", func(t *testing.T) {
		api := newFakeMarketAPI()
		api.productsErr = &domain.APIError{Op: "my products", Status: 403, Kind: domain.ErrAuthenticationRequired}
		svc := NewMarketplaceService(api, nil, logger.NewNop())

		dash, err := svc.Dashboard(context.Background())
		require.NoError(t, err)
		require.Empty(t, dash.Products)
		require.Len(t, dash.Orders, 1)
	})
}

func TestPendingUsersAndApprove(t *testing.T) {
	api := newFakeMarketAPI()
	api.users = []domain.User{
		{ID: "1", Username: "admin", Role: domain.RoleAdmin, IsApproved: true},
		{ID: "2", Username: "sam", Role: domain.RoleSeller},
	}
	svc := NewMarketplaceService(api, nil, logger.NewNop())

	pending, err := svc.PendingUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "sam", pending[0].Username)

	_, err = svc.ApproveUser(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrValidationRejected)

	res, err := svc.ApproveUser(context.Background(), "2")
	require.NoError(t, err)
	require.Equal(t, "User approved", res.Message)
}

func TestMarketplacePassThroughs(t *testing.T) {
	api := newFakeMarketAPI()
	svc := NewMarketplaceService(api, nil, logger.NewNop())
	ctx := context.Background()

	lo, hi := decimal.NewFromInt(50), decimal.NewFromInt(10)
	_, err := svc.Browse(ctx, domain.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
	require.ErrorIs(t, err, domain.ErrValidationRejected)

	listings, err := svc.Browse(ctx, domain.ProductFilter{Category: "watches"})
	require.NoError(t, err)
	require.Len(t, listings, 1)

	snap, err := svc.Listing(ctx, "5")
	require.NoError(t, err)
	require.Equal(t, domain.ID("5"), snap.Listing.ID)

	_, err = svc.PlaceBid(ctx, "7", decimal.Zero)
	require.ErrorIs(t, err, domain.ErrValidationRejected)
	placed, err := svc.PlaceBid(ctx, "7", decimal.NewFromInt(130))
	require.NoError(t, err)
	require.Equal(t, "130", placed.Amount.String())

	purchase, err := svc.Buy(ctx, "5")
	require.NoError(t, err)
	require.Equal(t, domain.ID("900"), purchase.TransactionID)

	closed, err := svc.CloseAuction(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, domain.ID("3"), closed.WinnerID)
}
