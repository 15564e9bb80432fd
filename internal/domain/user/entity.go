package user

import "user-order-console/internal/domain/timestamp"

// User represents a user as returned by the backend.
type User struct {
	ID        int64          `json:"id"`         // ID is server-assigned and immutable
	Name      string         `json:"name"`       // Name is the full name of the user
	Email     string         `json:"email"`      // Email is stored lowercased
	CreatedAt timestamp.Time `json:"created_at"` // CreatedAt is server-assigned
}

// Summary is the subset of a user embedded in joined order listings.
type Summary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateInput is the body of POST /users.
type CreateInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
