package order

import (
	"user-order-console/internal/domain/timestamp"
	"user-order-console/internal/domain/user"
	"user-order-console/pkg/amount"
)

// Order represents an order as returned by the backend.
type Order struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	ProductName string         `json:"product_name"`
	Amount      amount.Number  `json:"amount"`
	CreatedAt   timestamp.Time `json:"created_at"`
	User        *user.Summary  `json:"user,omitempty"` // User is present only on joined listings
}

// CreateInput is the body of POST /orders.
type CreateInput struct {
	UserID      int64   `json:"user_id"`
	ProductName string  `json:"product_name"`
	Amount      float64 `json:"amount"`
}
