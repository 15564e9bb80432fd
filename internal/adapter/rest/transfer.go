package rest

import (
	"context"
	"encoding/json"
	"net/http"
)

// ImportResult reports how many records the backend created and skipped.
// The skip policy belongs to the backend.
type ImportResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// importRequest wraps items as {"items": [...]}. Items stay raw so whatever
// the file contained is forwarded untouched.
type importRequest struct {
	Items []json.RawMessage `json:"items"`
}

// ExportUsers fetches every user via GET /export/users. The body is
// returned as sent: {"items": [...]}.
func (c *Client) ExportUsers(ctx context.Context) (json.RawMessage, error) {
	return c.export(ctx, "/export/users")
}

// ExportOrders fetches every order via GET /export/orders. The body is
// returned as sent: {"items": [...]}.
func (c *Client) ExportOrders(ctx context.Context) (json.RawMessage, error) {
	return c.export(ctx, "/export/orders")
}

// ExportAll fetches users and orders in one call via GET /export/all. The
// body is returned as sent: {"users": [...], "orders": [...]}.
func (c *Client) ExportAll(ctx context.Context) (json.RawMessage, error) {
	return c.export(ctx, "/export/all")
}

func (c *Client) export(ctx context.Context, path string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ImportUsers bulk-creates users via POST /import/users.
func (c *Client) ImportUsers(ctx context.Context, items []json.RawMessage) (*ImportResult, error) {
	return c.importItems(ctx, "/import/users", items)
}

// ImportOrders bulk-creates orders via POST /import/orders.
func (c *Client) ImportOrders(ctx context.Context, items []json.RawMessage) (*ImportResult, error) {
	return c.importItems(ctx, "/import/orders", items)
}

func (c *Client) importItems(ctx context.Context, path string, items []json.RawMessage) (*ImportResult, error) {
	if items == nil {
		items = []json.RawMessage{}
	}

	var out ImportResult
	if err := c.do(ctx, http.MethodPost, path, nil, importRequest{Items: items}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
