package handlers

import "context"

// contextKey is the type for request context keys
type contextKey string

const (
	// UserIDKey holds the authenticated user's ID
	UserIDKey contextKey = "user_id"
	// RoleKey holds the authenticated user's role
	RoleKey contextKey = "role"
	// TokenKey holds the raw bearer token that passed the gate
	TokenKey contextKey = "token"
)

// GetUserID extracts the authenticated user ID from the request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

// GetRole extracts the authenticated user's role from the request context
func GetRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// GetToken extracts the raw bearer token from the request context
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}
