package revocation

import (
	"context"
	"sync"
)

// Memory is an in-process Registry backed by a mutex-guarded set.
// Entries accumulate for the process lifetime; there is no eviction.
type Memory struct {
	mu     sync.RWMutex
	tokens map[string]struct{}
}

// NewMemory creates an empty in-memory registry
func NewMemory() *Memory {
	return &Memory{
		tokens: make(map[string]struct{}),
	}
}

// Revoke adds the token to the set. Idempotent.
func (m *Memory) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens[token] = struct{}{}
	return nil
}

// IsRevoked reports membership. O(1).
func (m *Memory) IsRevoked(ctx context.Context, token string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, revoked := m.tokens[token]
	return revoked, nil
}

// Close is a no-op for the in-memory registry
func (m *Memory) Close() error {
	return nil
}

// Len returns the number of revoked tokens. Used by tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.tokens)
}
