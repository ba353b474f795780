package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"marketplace-client/internal/domain"
	"marketplace-client/pkg/logger"

	"github.com/jpillora/backoff"
	"github.com/shopspring/decimal"
)

type ReconcilerConfig struct {
	// AutoAttach opens the bid stream as soon as an auction snapshot lands.
	AutoAttach     bool
	ConnectTimeout time.Duration
	BackoffMin     time.Duration
	BackoffMax     time.Duration
	BackoffFactor  float64
	BackoffJitter  bool
	// MaxReconnectAttempts of 0 retries forever.
	MaxReconnectAttempts int
}

func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		AutoAttach:     true,
		ConnectTimeout: 10 * time.Second,
		BackoffMin:     500 * time.Millisecond,
		BackoffMax:     30 * time.Second,
		BackoffFactor:  2,
		BackoffJitter:  true,
	}
}

// Reconciler keeps the highest bid and newest-first bid ledger of one listing
// consistent across a REST snapshot and the live bid stream.
//
// All state is owned by a single loop goroutine. Public methods and helper
// goroutines (snapshot fetch, dial, stream reader, reconnect timer) hand
// closures to the loop; helper results carry the lifecycle and connection
// generation they were started under and are dropped when stale.
type Reconciler struct {
	fetcher   domain.SnapshotFetcher
	dialer    domain.StreamDialer
	submitter domain.BidSubmitter
	cfg       ReconcilerConfig
	log       logger.Logger

	cmds     chan func()
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	subMu      sync.Mutex
	subs       map[string]*Subscription
	subsClosed bool

	viewMu  sync.RWMutex
	current domain.View

	// loop-owned
	lifecycle      uint64
	connGen        uint64
	lifeCtx        context.Context
	lifeCancel     context.CancelFunc
	listingID      domain.ID
	listing        *domain.Listing
	highest        decimal.Decimal
	increment      decimal.Decimal
	ledger         []domain.BidRecord
	state          domain.ReconcilerState
	streamState    domain.StreamState
	lastErr        error
	snapshotLoaded bool
	// awaitingResync is set while a post-reconnect snapshot is in flight;
	// stream events are buffered until it lands.
	awaitingResync bool
	buffer         []domain.BidRecord
	streamWanted   bool
	reconnecting   bool
	stream         domain.StreamConn
	bo             *backoff.Backoff
	attempts       int
	retryTimer     *time.Timer
}

func NewReconciler(
	fetcher domain.SnapshotFetcher,
	dialer domain.StreamDialer,
	submitter domain.BidSubmitter,
	cfg ReconcilerConfig,
	log logger.Logger,
) *Reconciler {
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 2
	}
	r := &Reconciler{
		fetcher:   fetcher,
		dialer:    dialer,
		submitter: submitter,
		cfg:       cfg,
		log:       log,
		cmds:      make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		subs:      make(map[string]*Subscription),
		bo: &backoff.Backoff{
			Min:    cfg.BackoffMin,
			Max:    cfg.BackoffMax,
			Factor: cfg.BackoffFactor,
			Jitter: cfg.BackoffJitter,
		},
	}
	r.current = domain.View{Ledger: []domain.BidRecord{}}
	go r.run()
	return r
}

func (r *Reconciler) run() {
	defer close(r.done)
	for {
		select {
		case cmd := <-r.cmds:
			cmd()
		case <-r.quit:
			r.shutdown()
			return
		}
	}
}

// exec hands fn to the loop without waiting for it to finish.
func (r *Reconciler) exec(fn func()) error {
	select {
	case r.cmds <- fn:
		return nil
	case <-r.quit:
		return domain.ErrReconcilerStopped
	}
}

// call runs fn on the loop and waits for its result.
func (r *Reconciler) call(fn func() error) error {
	errc := make(chan error, 1)
	if err := r.exec(func() { errc <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-errc:
		return err
	case <-r.done:
		return domain.ErrReconcilerStopped
	}
}

// Close stops the loop, releases the stream and closes every subscription.
// The reconciler cannot be used afterwards.
func (r *Reconciler) Close() {
	r.stopOnce.Do(func() { close(r.quit) })
	<-r.done
}

func (r *Reconciler) shutdown() {
	r.endLifecycle()
	r.subMu.Lock()
	r.subsClosed = true
	for id, sub := range r.subs {
		sub.closeChannel()
		delete(r.subs, id)
	}
	r.subMu.Unlock()
}

// Initialize starts a new lifecycle for listingID. Any active lifecycle is
// torn down first, so late results for the previous listing are discarded.
// The snapshot loads asynchronously; its outcome is published as
// snapshot_loaded or snapshot_unavailable.
func (r *Reconciler) Initialize(listingID domain.ID) error {
	if listingID == "" {
		return domain.NewValidationError("listing id is required")
	}
	return r.call(func() error {
		if r.active() {
			r.log.Info("Switching listing", "from", r.listingID, "to", listingID)
		}
		r.endLifecycle()

		r.lifecycle++
		r.lifeCtx, r.lifeCancel = context.WithCancel(context.Background())
		r.listingID = listingID
		r.listing = nil
		r.highest = decimal.Zero
		r.increment = decimal.Zero
		r.ledger = nil
		r.buffer = nil
		r.lastErr = nil
		r.snapshotLoaded = false
		r.awaitingResync = false
		r.reconnecting = false
		r.streamWanted = false
		r.attempts = 0
		r.bo.Reset()
		r.state = domain.StateSnapshotLoading
		r.streamState = domain.StreamNone
		r.refreshView()

		r.log.Info("Loading snapshot", "listing_id", listingID)
		r.fetchSnapshot(snapshotInitial, nil)
		return nil
	})
}

// AttachStream opens the bid stream for the active listing. It is a no-op
// while a connection is already connecting, open or being re-established.
func (r *Reconciler) AttachStream(listingID domain.ID) error {
	return r.call(func() error {
		if !r.active() {
			return fmt.Errorf("attach stream %s: %w", listingID, domain.ErrNoActiveListing)
		}
		if listingID != r.listingID {
			return fmt.Errorf("attach stream %s: active listing is %s: %w", listingID, r.listingID, domain.ErrNoActiveListing)
		}
		if r.snapshotLoaded && !r.listing.IsAuction() {
			return fmt.Errorf("attach stream %s: %w", listingID, domain.ErrNotAuction)
		}
		if r.streamWanted {
			return nil
		}
		r.streamWanted = true
		r.attempts = 0
		r.bo.Reset()
		r.startDial()
		return nil
	})
}

// OnEvent feeds one raw stream message through the merge rules. Malformed
// messages, unknown types and events for other listings are dropped.
func (r *Reconciler) OnEvent(raw []byte) {
	_ = r.call(func() error {
		r.handleMessage(raw)
		return nil
	})
}

// SubmitBid places a bid on the active auction. Local state is not touched;
// an accepted bid shows up through the stream like anyone else's.
func (r *Reconciler) SubmitBid(ctx context.Context, amount decimal.Decimal) (*domain.BidRecord, error) {
	if !amount.IsPositive() {
		return nil, domain.NewValidationError("bid amount must be positive")
	}

	var listingID domain.ID
	err := r.call(func() error {
		if !r.active() || !r.snapshotLoaded {
			return domain.ErrNoActiveListing
		}
		if !r.listing.IsAuction() {
			return domain.ErrNotAuction
		}
		listingID = r.listingID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit bid: %w", err)
	}

	bid, err := r.submitter.PlaceBid(ctx, listingID, amount)
	if err != nil {
		r.log.Info("Bid rejected", "listing_id", listingID, "amount", amount, "reason", domain.Reason(err))
		return nil, err
	}
	r.log.Info("Bid submitted", "listing_id", listingID, "amount", amount)
	return bid, nil
}

// Teardown ends the current lifecycle: the stream is closed, state becomes
// closed and nothing changes afterwards. Calling it again is a no-op.
func (r *Reconciler) Teardown() {
	_ = r.call(func() error {
		if !r.active() {
			return nil
		}
		r.endLifecycle()
		r.state = domain.StateClosed
		r.log.Info("Reconciler torn down", "listing_id", r.listingID)
		r.publish(domain.UpdateClosed, nil, nil)
		return nil
	})
}

// Resync re-fetches the snapshot of the active listing and merges it into
// the current view. It blocks until the merge happened or ctx is done.
func (r *Reconciler) Resync(ctx context.Context) error {
	reply := make(chan error, 1)
	err := r.call(func() error {
		if !r.active() || !r.snapshotLoaded {
			return domain.ErrNoActiveListing
		}
		r.fetchSnapshot(snapshotResync, reply)
		return nil
	})
	if err != nil {
		return fmt.Errorf("resync: %w", err)
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return domain.ErrReconcilerStopped
	}
}

// View returns a copy of the latest state.
func (r *Reconciler) View() domain.View {
	r.viewMu.RLock()
	defer r.viewMu.RUnlock()
	return cloneView(r.current)
}

func (r *Reconciler) active() bool {
	switch r.state {
	case domain.StateSnapshotLoading, domain.StateLive, domain.StateReconnecting:
		return true
	}
	return false
}

// endLifecycle releases everything tied to the current lifecycle. Results
// still in flight are invalidated by the generation bump.
func (r *Reconciler) endLifecycle() {
	if r.lifeCancel != nil {
		r.lifeCancel()
		r.lifeCancel = nil
	}
	r.lifecycle++
	r.streamWanted = false
	r.stopStream()
	if r.streamState != domain.StreamNone {
		r.streamState = domain.StreamClosed
	}
	r.buffer = nil
	r.awaitingResync = false
	r.reconnecting = false
}

func (r *Reconciler) stopStream() {
	r.connGen++
	if r.retryTimer != nil {
		r.retryTimer.Stop()
		r.retryTimer = nil
	}
	if r.stream != nil {
		if err := r.stream.Close(); err != nil {
			r.log.Debug("Closing bid stream", "listing_id", r.listingID, "error", err)
		}
		r.stream = nil
	}
}

type snapshotPurpose int

const (
	snapshotInitial snapshotPurpose = iota
	snapshotReconnect
	snapshotResync
)

func (p snapshotPurpose) String() string {
	switch p {
	case snapshotReconnect:
		return "reconnect"
	case snapshotResync:
		return "resync"
	default:
		return "initial"
	}
}

func (r *Reconciler) fetchSnapshot(purpose snapshotPurpose, reply chan<- error) {
	life, gen, ctx, id := r.lifecycle, r.connGen, r.lifeCtx, r.listingID
	go func() {
		snap, err := r.fetcher.FetchSnapshot(ctx, id)
		if execErr := r.exec(func() { r.onSnapshot(purpose, life, gen, snap, err, reply) }); execErr != nil && reply != nil {
			reply <- execErr
		}
	}()
}

func (r *Reconciler) onSnapshot(purpose snapshotPurpose, life, gen uint64, snap *domain.Snapshot, err error, reply chan<- error) {
	respond := func(err error) {
		if reply != nil {
			reply <- err
		}
	}

	if life != r.lifecycle {
		r.log.Debug("Discarding stale snapshot", "purpose", purpose, "listing_id", r.listingID)
		respond(domain.ErrNoActiveListing)
		return
	}
	if purpose == snapshotReconnect && gen != r.connGen {
		respond(nil)
		return
	}
	if err == nil && (snap == nil || snap.Listing == nil) {
		err = &domain.APIError{Op: "fetch snapshot", Kind: domain.ErrTransportUnavailable, Detail: "empty snapshot"}
	}

	switch purpose {
	case snapshotInitial:
		if err != nil {
			r.log.Warn("Snapshot unavailable", "listing_id", r.listingID, "error", err)
			r.streamWanted = false
			r.stopStream()
			if r.streamState != domain.StreamNone {
				r.streamState = domain.StreamClosed
			}
			r.buffer = nil
			r.lastErr = err
			r.state = domain.StateSnapshotFailed
			r.publish(domain.UpdateSnapshotUnavailable, nil, err)
			return
		}
		r.applySnapshot(snap)
		r.snapshotLoaded = true
		r.state = domain.StateLive
		if r.reconnecting {
			r.state = domain.StateReconnecting
		}
		r.log.Info("Snapshot loaded",
			"listing_id", r.listingID,
			"highest_bid", r.highest,
			"bids", len(r.ledger))
		r.publish(domain.UpdateSnapshotLoaded, nil, nil)

		if !r.listing.IsAuction() {
			if r.streamWanted {
				r.streamWanted = false
				r.stopStream()
				r.streamState = domain.StreamClosed
			}
			r.buffer = nil
			return
		}
		if r.reconnecting && r.stream != nil {
			// the stream reconnected while this snapshot was in flight, so
			// bids from the gap are only in a fresh one
			r.awaitingResync = true
			r.fetchSnapshot(snapshotReconnect, nil)
			return
		}
		if !r.awaitingResync {
			r.flushBuffer()
		}
		if r.cfg.AutoAttach && !r.streamWanted {
			r.streamWanted = true
			r.startDial()
		}

	case snapshotReconnect:
		if err != nil {
			r.log.Warn("Snapshot after reconnect failed", "listing_id", r.listingID, "error", err)
			r.lastErr = err
			r.onStreamFailure(err)
			return
		}
		r.mergeSnapshot(snap)
		r.awaitingResync = false
		r.reconnecting = false
		r.attempts = 0
		r.bo.Reset()
		r.lastErr = nil
		r.state = domain.StateLive
		r.log.Info("Resynced after reconnect", "listing_id", r.listingID, "highest_bid", r.highest)
		r.publish(domain.UpdateResynced, nil, nil)
		r.flushBuffer()

	case snapshotResync:
		if err != nil {
			r.log.Warn("Resync failed", "listing_id", r.listingID, "error", err)
			respond(err)
			return
		}
		r.mergeSnapshot(snap)
		r.publish(domain.UpdateResynced, nil, nil)
		if !r.awaitingResync {
			r.flushBuffer()
		}
		respond(nil)
	}
}

func (r *Reconciler) applySnapshot(snap *domain.Snapshot) {
	r.listing = snap.Listing.Clone()
	r.highest = snapshotHighest(snap)
	r.listing.CurrentHighestBid = r.highest
	r.increment = r.listing.MinBidIncrement
	r.ledger = append(make([]domain.BidRecord, 0, len(snap.Bids)), snap.Bids...)
}

// mergeSnapshot folds a re-fetched snapshot into the view. The snapshot's
// history replaces the ledger, bids this view accepted above the snapshot's
// highest are re-applied on top, and the highest bid never goes down.
func (r *Reconciler) mergeSnapshot(snap *domain.Snapshot) {
	snapHighest := snapshotHighest(snap)

	var newer []domain.BidRecord
	for _, rec := range r.ledger {
		if rec.Amount.GreaterThan(snapHighest) {
			newer = append(newer, rec)
		}
	}
	sortAscending(newer)

	prevHighest := r.highest
	r.applySnapshot(snap)
	for _, rec := range newer {
		r.prepend(rec)
	}
	if prevHighest.GreaterThan(r.highest) {
		r.highest = prevHighest
		r.listing.CurrentHighestBid = prevHighest
	}
}

// snapshotHighest is the larger of the listing's highest bid and its bid
// history; the two are read separately and the history may be newer.
func snapshotHighest(snap *domain.Snapshot) decimal.Decimal {
	highest := snap.Listing.CurrentHighestBid
	for _, rec := range snap.Bids {
		if rec.Amount.GreaterThan(highest) {
			highest = rec.Amount
		}
	}
	return highest
}

func (r *Reconciler) prepend(rec domain.BidRecord) {
	r.ledger = append(r.ledger, domain.BidRecord{})
	copy(r.ledger[1:], r.ledger)
	r.ledger[0] = rec
	if rec.Amount.GreaterThan(r.highest) {
		r.highest = rec.Amount
		r.listing.CurrentHighestBid = rec.Amount
	}
}

func (r *Reconciler) handleMessage(raw []byte) {
	if !r.active() {
		return
	}

	event, err := domain.ParseBidEvent(raw)
	if err != nil {
		r.log.Debug("Dropping stream message", "listing_id", r.listingID, "error", err)
		return
	}
	if event.ProductID != r.listingID {
		r.log.Debug("Dropping event for other listing", "listing_id", r.listingID, "event_listing_id", event.ProductID)
		return
	}

	rec := event.Record()
	if rec.ProductID == "" {
		rec.ProductID = r.listingID
	}
	if !r.snapshotLoaded || r.awaitingResync {
		r.buffer = append(r.buffer, rec)
		return
	}
	r.applyBid(rec)
}

// applyBid is the idempotent merge: only a strictly higher amount advances
// the view. Anything else is a replay or arrived out of order.
func (r *Reconciler) applyBid(rec domain.BidRecord) bool {
	if !rec.Amount.GreaterThan(r.highest) {
		r.log.Debug("Dropping stale bid", "listing_id", r.listingID, "amount", rec.Amount, "highest_bid", r.highest)
		return false
	}
	r.prepend(rec)
	r.log.Debug("Bid accepted", "listing_id", r.listingID, "amount", rec.Amount, "username", rec.Username)
	r.publish(domain.UpdateBidAccepted, &rec, nil)
	return true
}

func (r *Reconciler) flushBuffer() {
	if len(r.buffer) == 0 {
		return
	}
	pending := r.buffer
	r.buffer = nil
	sortAscending(pending)
	for _, rec := range pending {
		r.applyBid(rec)
	}
}

func sortAscending(recs []domain.BidRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Amount.LessThan(recs[j].Amount)
	})
}

func (r *Reconciler) startDial() {
	r.connGen++
	r.streamState = domain.StreamConnecting
	r.refreshView()

	life, gen, id := r.lifecycle, r.connGen, r.listingID
	ctx, cancel := r.lifeCtx, context.CancelFunc(func() {})
	if r.cfg.ConnectTimeout > 0 {
		ctx, cancel = context.WithTimeout(r.lifeCtx, r.cfg.ConnectTimeout)
	}
	go func() {
		defer cancel()
		conn, err := r.dialer.DialBidStream(ctx, id)
		if execErr := r.exec(func() { r.onDial(life, gen, conn, err) }); execErr != nil && conn != nil {
			_ = conn.Close()
		}
	}()
}

func (r *Reconciler) onDial(life, gen uint64, conn domain.StreamConn, err error) {
	if life != r.lifecycle || gen != r.connGen || !r.streamWanted {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		r.log.Warn("Bid stream dial failed", "listing_id", r.listingID, "error", err)
		r.lastErr = err
		r.onStreamFailure(err)
		return
	}

	r.stream = conn
	r.streamState = domain.StreamOpen
	r.log.Info("Bid stream open", "listing_id", r.listingID, "reconnect", r.reconnecting)
	go r.readLoop(life, gen, conn)

	if r.reconnecting && r.snapshotLoaded {
		// events missed while disconnected are never replayed
		r.awaitingResync = true
		r.fetchSnapshot(snapshotReconnect, nil)
	}
	r.publish(domain.UpdateStreamState, nil, nil)
}

func (r *Reconciler) readLoop(life, gen uint64, conn domain.StreamConn) {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			_ = r.exec(func() { r.onStreamClosed(life, gen, err) })
			return
		}
		if execErr := r.exec(func() {
			if life == r.lifecycle && gen == r.connGen {
				r.handleMessage(raw)
			}
		}); execErr != nil {
			return
		}
	}
}

func (r *Reconciler) onStreamClosed(life, gen uint64, err error) {
	if life != r.lifecycle || gen != r.connGen {
		return
	}
	r.log.Warn("Bid stream closed", "listing_id", r.listingID, "error", err)
	r.lastErr = &domain.APIError{Op: "read bid stream", Kind: domain.ErrTransportUnavailable, Detail: err.Error()}
	r.onStreamFailure(r.lastErr)
}

// onStreamFailure closes the current connection and schedules the next
// attempt, or gives up once MaxReconnectAttempts is exhausted.
func (r *Reconciler) onStreamFailure(err error) {
	r.stopStream()
	r.reconnecting = true
	r.attempts++

	if r.cfg.MaxReconnectAttempts > 0 && r.attempts > r.cfg.MaxReconnectAttempts {
		r.log.Error("Giving up on bid stream", "listing_id", r.listingID, "attempts", r.attempts-1)
		r.streamWanted = false
		r.reconnecting = false
		r.streamState = domain.StreamFailed
		if r.snapshotLoaded {
			r.awaitingResync = false
			r.state = domain.StateLive
			r.flushBuffer()
		}
		r.publish(domain.UpdateStreamState, nil, fmt.Errorf("stream gave up after %d attempts: %w", r.attempts-1, domain.ErrTransportUnavailable))
		return
	}

	if r.snapshotLoaded {
		r.state = domain.StateReconnecting
	}
	r.streamState = domain.StreamClosed
	delay := r.bo.Duration()
	r.log.Info("Reconnecting bid stream", "listing_id", r.listingID, "attempt", r.attempts, "delay", delay)
	r.publish(domain.UpdateStreamState, nil, err)

	life, gen := r.lifecycle, r.connGen
	r.retryTimer = time.AfterFunc(delay, func() {
		_ = r.exec(func() {
			if life != r.lifecycle || gen != r.connGen || !r.streamWanted {
				return
			}
			r.retryTimer = nil
			r.startDial()
		})
	})
}

func (r *Reconciler) buildView() domain.View {
	v := domain.View{
		ListingID:    r.listingID,
		Listing:      r.listing.Clone(),
		HighestBid:   r.highest,
		MinIncrement: r.increment,
		Ledger:       append(make([]domain.BidRecord, 0, len(r.ledger)), r.ledger...),
		State:        r.state,
		StreamState:  r.streamState,
		UpdatedAt:    time.Now().UTC(),
	}
	if r.listing.IsAuction() {
		v.MinimumNextBid = r.highest.Add(r.increment)
	}
	if r.lastErr != nil {
		v.LastError = domain.Reason(r.lastErr)
	}
	return v
}

func (r *Reconciler) refreshView() domain.View {
	v := r.buildView()
	r.viewMu.Lock()
	r.current = v
	r.viewMu.Unlock()
	return v
}

func (r *Reconciler) publish(kind domain.UpdateKind, bid *domain.BidRecord, err error) {
	v := r.refreshView()
	update := domain.Update{Kind: kind, View: v, Err: err}
	if bid != nil {
		b := *bid
		update.Bid = &b
	}

	r.subMu.Lock()
	defer r.subMu.Unlock()
	for _, sub := range r.subs {
		sub.deliver(cloneUpdate(update))
	}
}

func cloneView(v domain.View) domain.View {
	v.Listing = v.Listing.Clone()
	v.Ledger = append(make([]domain.BidRecord, 0, len(v.Ledger)), v.Ledger...)
	return v
}

func cloneUpdate(u domain.Update) domain.Update {
	u.View = cloneView(u.View)
	if u.Bid != nil {
		b := *u.Bid
		u.Bid = &b
	}
	return u
}

