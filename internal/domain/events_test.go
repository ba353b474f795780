package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseBidEvent(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantErr   error
		productID ID
		amount    string
	}{
		{
			name:      "numeric_product_id",
			raw:       `{"type":"new_bid","product_id":7,"username":"alice","amount":120.5,"timestamp":"2025-03-01T10:00:00"}`,
			productID: "7",
			amount:    "120.5",
		},
		{
			name:      "string_product_id_with_zone",
			raw:       `{"type":"new_bid","product_id":"7","username":"bob","amount":"130","timestamp":"2025-03-01T10:00:00Z"}`,
			productID: "7",
			amount:    "130",
		},
		{
			name:    "other_type",
			raw:     `{"type":"auction_closed","product_id":7}`,
			wantErr: ErrUnrecognizedEvent,
		},
		{
			name:    "legacy_text_frame",
			raw:     `new_bid:7:120`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "missing_type",
			raw:     `{"product_id":7,"amount":5}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "missing_amount",
			raw:     `{"type":"new_bid","product_id":7,"username":"a","timestamp":"2025-03-01T10:00:00"}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "zero_amount",
			raw:     `{"type":"new_bid","product_id":7,"username":"a","amount":0,"timestamp":"2025-03-01T10:00:00"}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "amount_not_a_number",
			raw:     `{"type":"new_bid","product_id":7,"username":"a","amount":"lots","timestamp":"2025-03-01T10:00:00"}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "missing_product_id",
			raw:     `{"type":"new_bid","username":"a","amount":10,"timestamp":"2025-03-01T10:00:00"}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "bad_timestamp",
			raw:     `{"type":"new_bid","product_id":7,"username":"a","amount":10,"timestamp":"yesterday"}`,
			wantErr: ErrMalformedEvent,
		},
		{
			name:    "missing_timestamp",
			raw:     `{"type":"new_bid","product_id":7,"username":"a","amount":10}`,
			wantErr: ErrMalformedEvent,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event, err := ParseBidEvent([]byte(tc.raw))
			if tc.wantErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
				require.Nil(t, event)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.productID, event.ProductID)
			require.True(t, decimal.RequireFromString(tc.amount).Equal(event.Amount))

			rec := event.Record()
			require.Equal(t, event.Username, rec.Username)
			require.True(t, rec.Amount.Equal(event.Amount))
			require.Equal(t, 2025, rec.Timestamp.Year())
		})
	}
}

func TestIDUnmarshal(t *testing.T) {
	var l Listing
	require.NoError(t, jsonUnmarshal(`{"id":42,"seller_id":"s-1","current_highest_bid":100,"min_bid_increment":10,"created_at":"2025-03-01T10:00:00.123456"}`, &l))
	require.Equal(t, ID("42"), l.ID)
	require.Equal(t, ID("s-1"), l.SellerID)
	require.True(t, l.CurrentHighestBid.Equal(decimal.NewFromInt(100)))
	require.Equal(t, 123456000, l.CreatedAt.Nanosecond())
	require.Nil(t, l.Price)

	var bad Listing
	require.Error(t, jsonUnmarshal(`{"id":{"nested":true}}`, &bad))
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := NewTimestamp(time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800)))
	b, err := ts.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"2025-03-01T04:30:00Z"`, string(b))

	var zero Timestamp
	b, err = zero.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, "null", string(b))

	_, err = ParseTimestamp("01/03/2025")
	require.Error(t, err)
}
