package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"marketplace-client/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	msgs   chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeStream() *fakeStream {
	return &fakeStream{msgs: make(chan []byte, 32), closed: make(chan struct{})}
}

func (s *fakeStream) ReadMessage() ([]byte, error) {
	select {
	case m, ok := <-s.msgs:
		if !ok {
			return nil, io.EOF
		}
		return m, nil
	case <-s.closed:
		return nil, net.ErrClosed
	}
}

func (s *fakeStream) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *fakeStream) push(raw []byte) { s.msgs <- raw }

// drop simulates the server closing the connection after the queued messages.
func (s *fakeStream) drop() { close(s.msgs) }

type dialOutcome struct {
	stream *fakeStream
	err    error
}

type fakeDialer struct {
	mu    sync.Mutex
	queue []dialOutcome
	dials int
}

func (d *fakeDialer) DialBidStream(ctx context.Context, listingID domain.ID) (domain.StreamConn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if len(d.queue) == 0 {
		return nil, &domain.APIError{Op: "dial bid stream", Kind: domain.ErrTransportUnavailable, Detail: "connection refused"}
	}
	next := d.queue[0]
	d.queue = d.queue[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.stream, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

type fetchOutcome struct {
	snap *domain.Snapshot
	err  error
	// gate holds the response back until closed; it ignores ctx so the
	// result arrives late even after the lifecycle ended.
	gate chan struct{}
}

type fakeFetcher struct {
	mu      sync.Mutex
	results map[domain.ID][]fetchOutcome
	calls   map[domain.ID]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{results: map[domain.ID][]fetchOutcome{}, calls: map[domain.ID]int{}}
}

func (f *fakeFetcher) add(id domain.ID, out fetchOutcome) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[id] = append(f.results[id], out)
	return f
}

func (f *fakeFetcher) FetchSnapshot(ctx context.Context, id domain.ID) (*domain.Snapshot, error) {
	f.mu.Lock()
	f.calls[id]++
	queue := f.results[id]
	if len(queue) == 0 {
		f.mu.Unlock()
		return nil, &domain.APIError{Op: "get product", Status: 404, Kind: domain.ErrNotFound}
	}
	out := queue[0]
	if len(queue) > 1 {
		f.results[id] = queue[1:]
	}
	f.mu.Unlock()

	if out.gate != nil {
		<-out.gate
	}
	if out.err != nil {
		return nil, out.err
	}
	snap := *out.snap
	snap.Listing = out.snap.Listing.Clone()
	snap.Bids = append([]domain.BidRecord(nil), out.snap.Bids...)
	return &snap, nil
}

func (f *fakeFetcher) callCount(id domain.ID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func bid(user string, amount int64, minute int) domain.BidRecord {
	return domain.BidRecord{
		Username:  user,
		Amount:    decimal.NewFromInt(amount),
		Timestamp: domain.NewTimestamp(t0.Add(time.Duration(minute) * time.Minute)),
	}
}

func auctionSnapshot(id domain.ID, highest, increment int64, bids ...domain.BidRecord) *domain.Snapshot {
	return &domain.Snapshot{
		Listing: &domain.Listing{
			ID:                id,
			Title:             "Listing " + id.String(),
			ListingType:       domain.ListingAuction,
			Status:            domain.ListingActive,
			CurrentHighestBid: decimal.NewFromInt(highest),
			MinBidIncrement:   decimal.NewFromInt(increment),
		},
		Bids: bids,
	}
}

func directSnapshot(id domain.ID) *domain.Snapshot {
	price := decimal.NewFromInt(25)
	return &domain.Snapshot{
		Listing: &domain.Listing{
			ID:          id,
			Title:       "Lamp",
			ListingType: domain.ListingDirect,
			Status:      domain.ListingActive,
			Price:       &price,
			Stock:       3,
		},
	}
}

func bidMsg(listingID domain.ID, user string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{"type":"new_bid","product_id":%q,"username":%q,"amount":%d,"timestamp":"2025-03-01T10:30:00"}`,
		listingID.String(), user, amount))
}

func testConfig() ReconcilerConfig {
	return ReconcilerConfig{
		AutoAttach:     true,
		ConnectTimeout: time.Second,
		BackoffMin:     time.Millisecond,
		BackoffMax:     5 * time.Millisecond,
		BackoffFactor:  2,
	}
}

func waitFor(t *testing.T, sub *Subscription, kind domain.UpdateKind) domain.Update {
	t.Helper()
	return waitUntil(t, sub, func(u domain.Update) bool { return u.Kind == kind })
}

func waitUntil(t *testing.T, sub *Subscription, match func(domain.Update) bool) domain.Update {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case u, ok := <-sub.Updates():
			require.True(t, ok, "subscription closed while waiting")
			if match(u) {
				return u
			}
		case <-timeout:
			t.Fatal("timed out waiting for update")
			return domain.Update{}
		}
	}
}

// drain returns whatever updates are queued right now.
func drain(sub *Subscription) []domain.Update {
	var out []domain.Update
	for {
		select {
		case u, ok := <-sub.Updates():
			if !ok {
				return out
			}
			out = append(out, u)
		default:
			return out
		}
	}
}

func amounts(ledger []domain.BidRecord) []string {
	out := make([]string, len(ledger))
	for i, rec := range ledger {
		out[i] = rec.Amount.String()
	}
	return out
}

var errBoom = errors.New("boom")
