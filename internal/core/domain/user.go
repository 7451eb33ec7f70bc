package domain

import "time"

const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

// User models an authenticated actor: fuel-tax analysts submit and read
// reports, admins additionally manage accounts.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
