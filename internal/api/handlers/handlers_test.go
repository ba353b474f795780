package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/internal/infrastructure/websocket"
	"marketplace-client/internal/mocks"
	"marketplace-client/internal/services"
	"marketplace-client/pkg/logger"

	"github.com/golang/mock/gomock"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type mirrorFixture struct {
	e         *echo.Echo
	watches   *services.WatchManager
	submitter *mocks.MockBidSubmitter
	archive   *mocks.MockBidArchive
	cache     *mocks.MockViewCache
}

func auctionListing(id domain.ID) *domain.Snapshot {
	start := decimal.NewFromInt(100)
	return &domain.Snapshot{
		Listing: &domain.Listing{
			ID:                id,
			Title:             "Vintage watch",
			ListingType:       domain.ListingAuction,
			Status:            domain.ListingActive,
			StartBid:          &start,
			CurrentHighestBid: decimal.NewFromInt(120),
			MinBidIncrement:   decimal.NewFromInt(10),
		},
		Bids: []domain.BidRecord{
			{Username: "ana", Amount: decimal.NewFromInt(120), Timestamp: domain.NewTimestamp(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))},
		},
	}
}

func newMirrorFixture(t *testing.T, withArchive, withCache bool) *mirrorFixture {
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockSnapshotFetcher(ctrl)
	fetcher.EXPECT().FetchSnapshot(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, id domain.ID) (*domain.Snapshot, error) {
			if id == "404" {
				return nil, &domain.APIError{Op: "get product", Status: http.StatusNotFound, Detail: "Product not found", Kind: domain.ErrNotFound}
			}
			return auctionListing(id), nil
		}).AnyTimes()
	dialer := mocks.NewMockStreamDialer(ctrl)

	f := &mirrorFixture{submitter: mocks.NewMockBidSubmitter(ctrl)}
	cfg := services.DefaultReconcilerConfig()
	cfg.AutoAttach = false
	f.watches = services.NewWatchManager(func() *services.Reconciler {
		return services.NewReconciler(fetcher, dialer, f.submitter, cfg, logger.NewNop())
	}, nil, 8, logger.NewNop())
	t.Cleanup(f.watches.Close)

	listings := NewListingHandler(f.watches, nil, nil, logger.NewNop())
	if withArchive {
		f.archive = mocks.NewMockBidArchive(ctrl)
		listings.archive = f.archive
	}
	if withCache {
		f.cache = mocks.NewMockViewCache(ctrl)
		listings.cache = f.cache
	}

	connManager := websocket.NewConnectionManager(logger.NewNop())
	f.e = echo.New()
	Register(f.e, listings, NewWebSocketHandlers(f.watches, connManager, logger.NewNop()), "test")
	return f
}

func (f *mirrorFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *mirrorFixture) watchLive(t *testing.T, id domain.ID) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/listings", `{"listing_id":"`+id.String()+`"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool {
		v, err := f.watches.View(id)
		return err == nil && v.State == domain.StateLive
	}, 2*time.Second, 5*time.Millisecond)
}

func TestHealthAndList(t *testing.T) {
	f := newMirrorFixture(t, false, false)

	rec := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"service":"bidwatch"`)

	f.watchLive(t, "7")

	rec = f.do(t, http.MethodGet, "/api/v1/listings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ListingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, domain.StateLive, resp.Listings[0].State)
	require.Equal(t, "130", resp.Listings[0].MinimumNextBid.String())
}

func TestGetListing(t *testing.T) {
	f := newMirrorFixture(t, false, true)
	f.watchLive(t, "7")

	rec := f.do(t, http.MethodGet, "/api/v1/listings/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "live", rec.Header().Get("X-View-Source"))
	var view domain.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, "120", view.HighestBid.String())
	require.Len(t, view.Ledger, 1)

	f.cache.EXPECT().LoadView(gomock.Any(), domain.ID("8")).Return(&domain.View{ListingID: "8", State: domain.StateLive}, nil)
	rec = f.do(t, http.MethodGet, "/api/v1/listings/8", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "cache", rec.Header().Get("X-View-Source"))

	f.cache.EXPECT().LoadView(gomock.Any(), domain.ID("9")).Return(nil, domain.ErrNotFound)
	rec = f.do(t, http.MethodGet, "/api/v1/listings/9", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlaceBidThroughMirror(t *testing.T) {
	f := newMirrorFixture(t, false, false)
	f.watchLive(t, "7")

	f.submitter.EXPECT().PlaceBid(gomock.Any(), domain.ID("7"), gomock.Any()).DoAndReturn(
		func(_ context.Context, id domain.ID, amount decimal.Decimal) (*domain.BidRecord, error) {
			require.True(t, amount.Equal(decimal.NewFromInt(130)))
			return &domain.BidRecord{ProductID: id, Username: "me", Amount: amount}, nil
		})
	rec := f.do(t, http.MethodPost, "/api/v1/listings/7/bids", `{"amount":130}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	// No optimistic update: the view only moves when the stream says so.
	view, err := f.watches.View("7")
	require.NoError(t, err)
	require.Equal(t, "120", view.HighestBid.String())

	f.submitter.EXPECT().PlaceBid(gomock.Any(), domain.ID("7"), gomock.Any()).Return(nil,
		&domain.APIError{Op: "place bid", Status: http.StatusBadRequest, Detail: "Bid must be at least 130.00", Kind: domain.ErrValidationRejected})
	rec = f.do(t, http.MethodPost, "/api/v1/listings/7/bids", `{"amount":"125"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Bid must be at least 130.00")
	require.Contains(t, rec.Body.String(), `"kind":"validation rejected"`)

	rec = f.do(t, http.MethodPost, "/api/v1/listings/7/bids", `{"amount":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/listings/99/bids", `{"amount":10}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResyncAndWatchValidation(t *testing.T) {
	f := newMirrorFixture(t, false, false)
	f.watchLive(t, "7")

	rec := f.do(t, http.MethodPost, "/api/v1/listings/7/resync", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view domain.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Equal(t, domain.StateLive, view.State)

	rec = f.do(t, http.MethodPost, "/api/v1/listings", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(t, http.MethodPost, "/api/v1/listings/99/resync", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResyncOfFailedListingConflicts(t *testing.T) {
	f := newMirrorFixture(t, false, false)
	rec := f.do(t, http.MethodPost, "/api/v1/listings", `{"listing_id":"404"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Eventually(t, func() bool {
		v, err := f.watches.View("404")
		return err == nil && v.State == domain.StateSnapshotFailed
	}, 2*time.Second, 5*time.Millisecond)

	rec = f.do(t, http.MethodPost, "/api/v1/listings/404/resync", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/listings/404", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = f.do(t, http.MethodGet, "/api/v1/listings/404", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/v1/listings/404", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestArchive(t *testing.T) {
	disabled := newMirrorFixture(t, false, false)
	rec := disabled.do(t, http.MethodGet, "/api/v1/listings/7/archive", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	f := newMirrorFixture(t, true, false)
	f.archive.EXPECT().ListObservedBids(gomock.Any(), domain.ID("7"), 5).Return([]domain.BidRecord{
		{Username: "ana", Amount: decimal.NewFromInt(120)},
	}, nil)
	rec = f.do(t, http.MethodGet, "/api/v1/listings/7/archive?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp ArchiveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Bids, 1)

	rec = f.do(t, http.MethodGet, "/api/v1/listings/7/archive?limit=abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMirrorWebSocket(t *testing.T) {
	f := newMirrorFixture(t, false, false)
	f.watchLive(t, "7")

	srv := httptest.NewServer(f.e)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/listings/7"

	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first services.MirrorMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	require.Equal(t, services.MirrorViewKind, first.Type)
	require.Equal(t, "120", first.View.HighestBid.String())

	_, resp, err := gorillaws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/listings/99", nil)
	require.Error(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrValidationRejected:     http.StatusBadRequest,
		domain.ErrAuthenticationRequired: http.StatusUnauthorized,
		domain.ErrNotFound:               http.StatusNotFound,
		domain.ErrNotAuction:             http.StatusConflict,
		domain.ErrTransportUnavailable:   http.StatusBadGateway,
		domain.ErrReconcilerStopped:      http.StatusServiceUnavailable,
		context.DeadlineExceeded:         http.StatusGatewayTimeout,
	}
	for err, want := range cases {
		require.Equal(t, want, StatusFor(err), err.Error())
	}
}
