package storage

import (
	"context"

	"github.com/maryamfad/atlas-ecommerce-backend/internal/models"
)

// UserStorage defines interface for user account persistence.
// Uniqueness of username and email is enforced by the implementation,
// not by callers.
type UserStorage interface {
	// CreateUser creates a new user account.
	// Returns ErrUserAlreadyExists if username or email is taken.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByUsername retrieves user by username.
	// Returns ErrUserNotFound if user doesn't exist.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID retrieves user by ID.
	// Returns ErrUserNotFound if user doesn't exist.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateUser updates profile fields and re-stamps updated_at.
	// The password hash is not touched; use UpdatePassword for that.
	// Returns ErrUserNotFound if user doesn't exist.
	UpdateUser(ctx context.Context, user *models.User) error

	// UpdatePassword replaces the stored password hash and re-stamps
	// updated_at. The hash must already be derived by the caller.
	// Returns ErrUserNotFound if user doesn't exist.
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// DeleteUser deletes user by ID. Test-support operation.
	// Returns ErrUserNotFound if user doesn't exist.
	DeleteUser(ctx context.Context, userID string) error
}
