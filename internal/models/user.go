package models

import "time"

// DefaultRole is assigned to every account created through signup.
// The role is carried on the account and inside issued tokens but is
// not interpreted by this service.
const DefaultRole = "customer"

// User represents a registered account.
// PasswordHash is never serialized; plaintext passwords exist only
// transiently in memory during signup and login.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
