package domain

import (
	"github.com/shopspring/decimal"
)

type ListingType string

const (
	ListingDirect  ListingType = "direct"
	ListingAuction ListingType = "auction"
)

type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingEnded     ListingStatus = "ended"
	ListingCancelled ListingStatus = "cancelled"
	ListingBanned    ListingStatus = "banned"
)

// Listing is a sellable item as reported by the marketplace API.
type Listing struct {
	ID                ID               `json:"id"`
	SellerID          ID               `json:"seller_id,omitempty"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	Images            []string         `json:"images"`
	ListingType       ListingType      `json:"listing_type"`
	Status            ListingStatus    `json:"status"`
	Price             *decimal.Decimal `json:"price,omitempty"`
	Stock             int              `json:"stock,omitempty"`
	StartBid          *decimal.Decimal `json:"start_bid,omitempty"`
	CurrentHighestBid decimal.Decimal  `json:"current_highest_bid"`
	MinBidIncrement   decimal.Decimal  `json:"min_bid_increment"`
	EndTime           *Timestamp       `json:"end_time,omitempty"`
	CreatedAt         Timestamp        `json:"created_at"`
}

func (l *Listing) IsAuction() bool {
	return l != nil && l.ListingType == ListingAuction
}

// Clone returns a deep copy so views handed to subscribers never alias loop state.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	c := *l
	if l.Images != nil {
		c.Images = append([]string(nil), l.Images...)
	}
	if l.Price != nil {
		p := *l.Price
		c.Price = &p
	}
	if l.StartBid != nil {
		s := *l.StartBid
		c.StartBid = &s
	}
	if l.EndTime != nil {
		e := *l.EndTime
		c.EndTime = &e
	}
	return &c
}

// BidRecord is one observed bid. Immutable once observed.
type BidRecord struct {
	ID        ID              `json:"id,omitempty"`
	ProductID ID              `json:"product_id,omitempty"`
	UserID    ID              `json:"user_id,omitempty"`
	Username  string          `json:"username"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp Timestamp       `json:"timestamp"`
}

// Snapshot is the one-shot REST state of a listing plus its bid history,
// newest first.
type Snapshot struct {
	Listing   *Listing
	Bids      []BidRecord
	FetchedAt Timestamp
}

type UserRole string

const (
	RoleBuyer  UserRole = "buyer"
	RoleSeller UserRole = "seller"
	RoleAdmin  UserRole = "admin"
)

type User struct {
	ID         ID        `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Role       UserRole  `json:"role"`
	IsApproved bool      `json:"is_approved"`
	CreatedAt  Timestamp `json:"created_at"`
}

type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     UserRole `json:"role"`
}

// Order is a purchase or auction settlement as the buyer sees it.
type Order struct {
	ID               ID              `json:"id"`
	ProductID        ID              `json:"product_id"`
	BuyerID          ID              `json:"buyer_id"`
	SellerID         ID              `json:"seller_id"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetSellerAmount  decimal.Decimal `json:"net_seller_amount"`
	Status           string          `json:"status"`
	CreatedAt        Timestamp       `json:"created_at"`
}

type PurchaseResult struct {
	Message       string `json:"message"`
	TransactionID ID     `json:"transaction_id"`
}

type CloseAuctionResult struct {
	Message  string `json:"message"`
	WinnerID ID     `json:"winner_id,omitempty"`
}

type ApprovalResult struct {
	Message string `json:"message"`
}

// ProductFilter holds the optional browse filters; zero values are omitted
// from the query string.
type ProductFilter struct {
	Category    string
	ListingType ListingType
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Search      string
}

// CreateListingRequest is the payload of POST /products. Direct listings
// carry Price and Stock, auctions StartBid and MinBidIncrement.
type CreateListingRequest struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Category        string           `json:"category"`
	Images          []string         `json:"images"`
	ListingType     ListingType      `json:"listing_type"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	Stock           *int             `json:"stock,omitempty"`
	StartBid        *decimal.Decimal `json:"start_bid,omitempty"`
	MinBidIncrement *decimal.Decimal `json:"min_bid_increment,omitempty"`
	EndTime         *Timestamp       `json:"end_time,omitempty"`
}

// Validate applies the shape rules the listing form enforces before sending.
// Price and bid validation proper stays with the server.
func (r *CreateListingRequest) Validate() error {
	if r.Title == "" || r.Description == "" || r.Category == "" {
		return NewValidationError("title, description and category are required")
	}
	if r.Images == nil {
		r.Images = []string{}
	}
	switch r.ListingType {
	case ListingDirect:
		if r.Price == nil || !r.Price.IsPositive() {
			return NewValidationError("direct listings need a positive price")
		}
		if r.Stock != nil && *r.Stock < 1 {
			return NewValidationError("stock must be at least 1")
		}
		r.StartBid, r.MinBidIncrement, r.EndTime = nil, nil, nil
	case ListingAuction:
		if r.StartBid == nil || r.StartBid.IsNegative() {
			return NewValidationError("auctions need a non-negative starting bid")
		}
		if r.MinBidIncrement != nil && !r.MinBidIncrement.IsPositive() {
			return NewValidationError("min bid increment must be positive")
		}
		r.Price, r.Stock = nil, nil
	default:
		return NewValidationError("listing_type must be direct or auction")
	}
	return nil
}
