package rest

import (
	"context"
	"net/http"

	"user-order-console/internal/domain/order"
	"user-order-console/internal/domain/paging"
)

// CreateOrder creates an order via POST /orders.
func (c *Client) CreateOrder(ctx context.Context, in order.CreateInput) (*order.Order, error) {
	var out order.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListOrders fetches one page of orders via GET /orders.
func (c *Client) ListOrders(ctx context.Context, p ListParams) (*paging.Page[order.Order], error) {
	var out paging.Page[order.Order]
	if err := c.do(ctx, http.MethodGet, "/orders", p.values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
