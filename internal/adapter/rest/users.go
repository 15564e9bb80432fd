package rest

import (
	"context"
	"fmt"
	"net/http"

	"user-order-console/internal/domain/order"
	"user-order-console/internal/domain/paging"
	"user-order-console/internal/domain/user"
)

// UserOrders is the response of GET /users/{id}/orders.
type UserOrders struct {
	Items []order.Order `json:"items"`
	Total int64         `json:"total"`
}

// CreateUser creates a user via POST /users.
func (c *Client) CreateUser(ctx context.Context, in user.CreateInput) (*user.User, error) {
	var out user.User
	if err := c.do(ctx, http.MethodPost, "/users", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers fetches one page of users via GET /users.
func (c *Client) ListUsers(ctx context.Context, p ListParams) (*paging.Page[user.User], error) {
	var out paging.Page[user.User]
	if err := c.do(ctx, http.MethodGet, "/users", p.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUserOrders fetches every order of one user via GET /users/{id}/orders.
func (c *Client) ListUserOrders(ctx context.Context, userID int64) (*UserOrders, error) {
	var out UserOrders
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/orders", userID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
