package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"marketplace-client/internal/config"
	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	auctionJSON = `{"id":7,"title":"Watch","description":"Vintage","category":"watches","images":[],"listing_type":"auction","status":"active","start_bid":50,"current_highest_bid":100,"min_bid_increment":10,"created_at":"2025-03-01T09:00:00"}`
	directJSON  = `{"id":8,"title":"Lamp","description":"Brass","category":"home","images":[],"listing_type":"direct","status":"active","price":25,"stock":3,"current_highest_bid":0,"min_bid_increment":0,"created_at":"2025-03-01T09:00:00"}`
	bidsJSON    = `[{"id":2,"product_id":7,"user_id":5,"username":"bob","amount":100,"timestamp":"2025-03-01T10:05:00"}]`
)

func newTestCLI(t *testing.T, format string) (*cli, *bytes.Buffer, func() string) {
	t.Helper()
	var (
		mu       sync.Mutex
		lastBody string
	)

	r := mux.NewRouter()
	r.HandleFunc("/api/products", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "["+auctionJSON+","+directJSON+"]")
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/products/7", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, auctionJSON)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/products/7/bids", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, bidsJSON)
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/products/7/bid", func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		mu.Lock()
		lastBody = string(body)
		mu.Unlock()
		_, _ = io.WriteString(w, `{"id":3,"product_id":7,"user_id":4,"username":"alice","amount":120,"timestamp":"2025-03-01T10:10:00"}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/products/8/bid", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"detail":"This product is not an auction"}`)
	}).Methods(http.MethodPost)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		API:  config.APIConfig{BaseURL: srv.URL + "/api", Timeout: time.Second},
		Auth: config.AuthConfig{TokenBackend: config.TokenBackendFile, TokenFile: filepath.Join(t.TempDir(), "token")},
	}
	c, err := newCLI(context.Background(), cfg, logger.NewNop(), format)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	c.out = out
	c.in = strings.NewReader("")
	return c, out, func() string {
		mu.Lock()
		defer mu.Unlock()
		return lastBody
	}
}

func TestBrowseText(t *testing.T) {
	c, out, _ := newTestCLI(t, "text")
	require.NoError(t, runBrowse(context.Background(), c, nil))

	text := out.String()
	assert.Contains(t, text, "Watch")
	assert.Contains(t, text, "100.00 (bid)")
	assert.Contains(t, text, "25.00")
}

func TestBrowseRejectsInvertedRange(t *testing.T) {
	c, _, _ := newTestCLI(t, "text")
	err := runBrowse(context.Background(), c, []string{"-min", "50", "-max", "10"})
	require.ErrorIs(t, err, domain.ErrValidationRejected)
	assert.Equal(t, exitRejected, exitCode(err))
}

func TestShowPrintsBidHistory(t *testing.T) {
	c, out, _ := newTestCLI(t, "text")
	require.NoError(t, runShow(context.Background(), c, []string{"7"}))
	assert.Contains(t, out.String(), "bob")
	assert.Contains(t, out.String(), "increment")

	require.ErrorIs(t, runShow(context.Background(), c, nil), errUsage)
}

func TestBidJSON(t *testing.T) {
	c, out, lastBody := newTestCLI(t, "json")
	require.NoError(t, runBid(context.Background(), c, []string{"7", "120"}))
	assert.JSONEq(t, `{"amount":120}`, lastBody())

	var bid domain.BidRecord
	require.NoError(t, json.Unmarshal(out.Bytes(), &bid))
	assert.True(t, bid.Amount.Equal(decimal.NewFromInt(120)))
	assert.Equal(t, "alice", bid.Username)
}

func TestBidRejectedByServer(t *testing.T) {
	c, _, _ := newTestCLI(t, "text")
	err := runBid(context.Background(), c, []string{"8", "10"})
	require.Error(t, err)
	assert.Equal(t, "This product is not an auction", domain.Reason(err))
	assert.Equal(t, exitRejected, exitCode(err))

	require.ErrorIs(t, runBid(context.Background(), c, []string{"7", "abc"}), domain.ErrValidationRejected)
	require.ErrorIs(t, runBid(context.Background(), c, []string{"7"}), errUsage)
}

func TestWhoamiWithoutSession(t *testing.T) {
	c, _, _ := newTestCLI(t, "text")
	err := runWhoami(context.Background(), c, nil)
	assert.Equal(t, exitAuth, exitCode(err))
}

func TestExitCode(t *testing.T) {
	cases := map[error]int{
		nil:                              exitOK,
		errUsage:                         exitUsage,
		domain.ErrAuthenticationRequired: exitAuth,
		domain.NewValidationError("x"):   exitRejected,
		domain.ErrNotAuction:             exitRejected,
		domain.ErrNotFound:               exitNotFound,
		domain.ErrTransportUnavailable:   exitTransport,
		context.DeadlineExceeded:         exitTransport,
		domain.ErrMalformedEvent:         exitMalformed,
		errors.New("boom"):               exitFailure,
	}
	for err, want := range cases {
		assert.Equal(t, want, exitCode(err), "%v", err)
	}
	assert.Equal(t, exitNotFound, exitCode(&domain.APIError{Status: 404, Kind: domain.ErrNotFound}))
}

func TestParseArgsInterspersed(t *testing.T) {
	fs := newFlags("watch")
	d := fs.Duration("for", 0, "")
	pos, err := parseArgs(fs, []string{"7", "-for", "5s"})
	require.NoError(t, err)
	assert.Equal(t, []string{"7"}, pos)
	assert.Equal(t, 5*time.Second, *d)
}

func TestParseCreate(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	req, images, err := parseCreate([]string{
		"-title", "Watch", "-description", "Vintage", "-category", "watches",
		"-type", "auction", "-start-bid", "50", "-increment", "5", "-end", "48h",
		"-image", "a.png", "-image", "b.png", "-image-url", "/uploads/c.png",
	}, now)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, images)
	assert.Equal(t, []string{"/uploads/c.png"}, req.Images)
	assert.Equal(t, domain.ListingAuction, req.ListingType)
	require.NotNil(t, req.EndTime)
	assert.Equal(t, now.Add(48*time.Hour), req.EndTime.Time)
	require.NoError(t, req.Validate())

	req, _, err = parseCreate([]string{"-end", "2025-04-01T10:00:00"}, now)
	require.NoError(t, err)
	assert.Equal(t, 2025, req.EndTime.Year())

	_, _, err = parseCreate([]string{"-end", "someday"}, now)
	require.ErrorIs(t, err, domain.ErrValidationRejected)
}

func TestPrintUpdate(t *testing.T) {
	view := domain.View{
		ListingID:      "7",
		HighestBid:     decimal.NewFromInt(120),
		MinimumNextBid: decimal.NewFromInt(130),
		StreamState:    domain.StreamOpen,
	}
	var buf bytes.Buffer
	printUpdate(&buf, domain.Update{
		Kind: domain.UpdateBidAccepted,
		View: view,
		Bid:  &domain.BidRecord{Username: "alice", Amount: decimal.NewFromInt(120)},
	})
	assert.Contains(t, buf.String(), "alice")
	assert.Contains(t, buf.String(), "next >= 130.00")

	buf.Reset()
	printUpdate(&buf, domain.Update{Kind: domain.UpdateStreamState, View: view})
	assert.Equal(t, "stream open\n", buf.String())
}
