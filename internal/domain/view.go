package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type ReconcilerState int

const (
	StateIdle ReconcilerState = iota
	StateSnapshotLoading
	StateSnapshotFailed
	StateLive
	StateReconnecting
	StateClosed
)

func (s ReconcilerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSnapshotLoading:
		return "snapshot-loading"
	case StateSnapshotFailed:
		return "snapshot-failed"
	case StateLive:
		return "live"
	case StateReconnecting:
		return "reconnecting"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func (s ReconcilerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *ReconcilerState) UnmarshalText(text []byte) error {
	for candidate := StateIdle; candidate <= StateClosed; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown reconciler state %q", text)
}

type StreamState int

const (
	StreamNone StreamState = iota
	StreamConnecting
	StreamOpen
	StreamClosed
	StreamFailed
)

func (s StreamState) String() string {
	switch s {
	case StreamNone:
		return "none"
	case StreamConnecting:
		return "connecting"
	case StreamOpen:
		return "open"
	case StreamClosed:
		return "closed"
	case StreamFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s StreamState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *StreamState) UnmarshalText(text []byte) error {
	for candidate := StreamNone; candidate <= StreamFailed; candidate++ {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown stream state %q", text)
}

// View is an immutable copy of a reconciler's state, safe to hand to any
// goroutine.
type View struct {
	ListingID      ID              `json:"listing_id"`
	Listing        *Listing        `json:"listing,omitempty"`
	HighestBid     decimal.Decimal `json:"highest_bid"`
	MinIncrement   decimal.Decimal `json:"min_increment"`
	MinimumNextBid decimal.Decimal `json:"minimum_next_bid"`
	Ledger         []BidRecord     `json:"ledger"`
	State          ReconcilerState `json:"state"`
	StreamState    StreamState     `json:"stream_state"`
	LastError      string          `json:"last_error,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type UpdateKind string

const (
	UpdateSnapshotLoaded      UpdateKind = "snapshot_loaded"
	UpdateSnapshotUnavailable UpdateKind = "snapshot_unavailable"
	UpdateBidAccepted         UpdateKind = "bid_accepted"
	UpdateStreamState         UpdateKind = "stream_state"
	UpdateResynced            UpdateKind = "resynced"
	UpdateClosed              UpdateKind = "closed"
)

// Update is one notification published to reconciler subscribers. It always
// carries the full view, so a subscriber that missed earlier updates still
// converges on the latest state.
type Update struct {
	Kind UpdateKind `json:"kind"`
	View View       `json:"view"`
	Bid  *BidRecord `json:"bid,omitempty"`
	Err  error      `json:"-"`
}
