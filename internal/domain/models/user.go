package models

import "time"

// User is an account that can act as passenger, driver, or admin.
// PasswordHash is never serialized.
type User struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	PasswordHash string   `json:"-"`
	Role       string     `json:"role"` // user | admin
	Gender     string     `json:"gender,omitempty"`
	Rating     float64    `json:"rating"`
	IsVerified bool       `json:"isVerified"`
	IsActive   bool       `json:"isActive"`
	LastLogin  *time.Time `json:"lastLogin,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}
