package domain

import "time"

// User represents an authenticated user in the system.
// Users are owned by the auth layer; the book-tracking profile that
// hangs off a user is the Account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Account is the book-tracking profile tied 1:1 to a user.
// Friendships and book ownership hang off the account, not the user.
type Account struct {
	// UserID is the primary key; there is at most one account per user.
	UserID string `json:"user_id"`
	// Username is denormalized from the owning user for display and lookup.
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}
