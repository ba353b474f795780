package domain

//go:generate mockgen -destination=../mocks/domain_mocks.go -package=mocks marketplace-client/internal/domain SnapshotFetcher,BidSubmitter,StreamDialer,AuthAPI,TokenStore,ViewCache,BidEventPublisher,ListingBroadcaster

import (
	"context"

	"github.com/shopspring/decimal"
)

// Marketplace API collaborators
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, listingID ID) (*Snapshot, error)
}

type BidSubmitter interface {
	PlaceBid(ctx context.Context, listingID ID, amount decimal.Decimal) (*BidRecord, error)
}

// Stream transport interfaces
type StreamConn interface {
	ReadMessage() ([]byte, error)
	Close() error
}

type StreamDialer interface {
	DialBidStream(ctx context.Context, listingID ID) (StreamConn, error)
}

// AuthAPI is the identity surface of the marketplace API.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (*AuthToken, error)
	Register(ctx context.Context, reg Registration) (*AuthToken, error)
	Me(ctx context.Context) (*User, error)
	SetToken(token string)
}

// Session persistence. LoadToken returns "" and no error when nothing is stored.
type TokenStore interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Downstream sinks fed with reconciled state
type ViewCache interface {
	StoreView(ctx context.Context, view *View) error
	LoadView(ctx context.Context, listingID ID) (*View, error)
}

type BidEventPublisher interface {
	PublishAcceptedBid(ctx context.Context, listingID ID, bid *BidRecord) error
}

type ListingBroadcaster interface {
	BroadcastToListing(ctx context.Context, listingID ID, message interface{}) error
}

// Local mirror websocket interfaces
type WebSocketConnection interface {
	Send(message []byte) error
	Close() error
	ID() string
	ListingID() ID
}

type ConnectionManager interface {
	RegisterConnection(listingID ID, conn WebSocketConnection) error
	UnregisterConnection(listingID ID, connID string) error
	GetConnectionsForListing(listingID ID) []WebSocketConnection
	BroadcastToListing(listingID ID, message interface{}) error
	CloseAndUnregisterConnections(listingID ID) error
}
