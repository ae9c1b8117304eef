// Package revocation tracks bearer tokens that must no longer be
// accepted even while their signature and expiry are still valid.
// Revocation dominates expiry: once a token is in the registry it is
// never accepted again, and membership is monotonic — there is no
// un-revoke.
package revocation

import "context"

// Registry is the revocation set. Implementations must be safe for
// concurrent Revoke and IsRevoked from multiple in-flight requests.
type Registry interface {
	// Revoke adds the token to the set. Revoking an already-revoked
	// token is a no-op, not an error.
	Revoke(ctx context.Context, token string) error

	// IsRevoked reports membership.
	IsRevoked(ctx context.Context, token string) (bool, error)

	// Close releases any resources held by the registry.
	Close() error
}
