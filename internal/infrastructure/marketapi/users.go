package marketapi

import (
	"context"
	"net/http"

	"marketplace-client/internal/domain"
)

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthToken, error) {
	var token domain.AuthToken
	if err := c.do(ctx, request{op: "login", method: http.MethodPost, path: []string{"auth", "login"}, body: creds}, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (*domain.AuthToken, error) {
	if reg.Role == "" {
		reg.Role = domain.RoleBuyer
	}
	var token domain.AuthToken
	if err := c.do(ctx, request{op: "register", method: http.MethodPost, path: []string{"auth", "register"}, body: reg}, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, request{op: "identity check", method: http.MethodGet, path: []string{"auth", "me"}}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) MyProducts(ctx context.Context) ([]domain.Listing, error) {
	var listings []domain.Listing
	err := c.do(ctx, request{op: "my products", method: http.MethodGet, path: []string{"users", "me", "products"}}, &listings)
	return listings, err
}

func (c *Client) MyBids(ctx context.Context) ([]domain.BidRecord, error) {
	var bids []domain.BidRecord
	err := c.do(ctx, request{op: "my bids", method: http.MethodGet, path: []string{"users", "me", "bids"}}, &bids)
	return bids, err
}

func (c *Client) MyOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	err := c.do(ctx, request{op: "my orders", method: http.MethodGet, path: []string{"users", "me", "orders"}}, &orders)
	return orders, err
}

func (c *Client) AdminUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := c.do(ctx, request{op: "admin users", method: http.MethodGet, path: []string{"admin", "users"}}, &users)
	return users, err
}

func (c *Client) ApproveUser(ctx context.Context, userID domain.ID) (*domain.ApprovalResult, error) {
	var result domain.ApprovalResult
	if err := c.do(ctx, request{op: "approve user", method: http.MethodPost, path: []string{"admin", "users", userID.String(), "approve"}}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
