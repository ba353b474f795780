package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// NewBidMessageType is the only stream message type the client acts on.
const NewBidMessageType = "new_bid"

// BidEvent is a "new_bid" message pushed on /ws/bids/{id}.
type BidEvent struct {
	Type      string          `json:"type"`
	ProductID ID              `json:"product_id"`
	Username  string          `json:"username"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp Timestamp       `json:"timestamp"`
}

type wireBidEvent struct {
	Type      *string          `json:"type"`
	ProductID *ID              `json:"product_id"`
	Username  *string          `json:"username"`
	Amount    *decimal.Decimal `json:"amount"`
	Timestamp *Timestamp       `json:"timestamp"`
}

// ParseBidEvent decodes a raw stream message. Messages of another type
// return ErrUnrecognizedEvent; anything not matching the new_bid shape
// returns ErrMalformedEvent. Both are meant to be dropped by the caller.
func ParseBidEvent(raw []byte) (*BidEvent, error) {
	var w wireBidEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if w.Type == nil {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	if *w.Type != NewBidMessageType {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedEvent, *w.Type)
	}
	switch {
	case w.ProductID == nil || *w.ProductID == "":
		return nil, fmt.Errorf("%w: missing product_id", ErrMalformedEvent)
	case w.Username == nil:
		return nil, fmt.Errorf("%w: missing username", ErrMalformedEvent)
	case w.Amount == nil:
		return nil, fmt.Errorf("%w: missing amount", ErrMalformedEvent)
	case !w.Amount.IsPositive():
		return nil, fmt.Errorf("%w: non-positive amount %s", ErrMalformedEvent, w.Amount)
	case w.Timestamp == nil || w.Timestamp.IsZero():
		return nil, fmt.Errorf("%w: missing timestamp", ErrMalformedEvent)
	}

	return &BidEvent{
		Type:      *w.Type,
		ProductID: *w.ProductID,
		Username:  *w.Username,
		Amount:    *w.Amount,
		Timestamp: *w.Timestamp,
	}, nil
}

func (e *BidEvent) Record() BidRecord {
	return BidRecord{
		ProductID: e.ProductID,
		Username:  e.Username,
		Amount:    e.Amount,
		Timestamp: e.Timestamp,
	}
}
