package revocation

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// BoltDB bucket holding revoked tokens; key = token, value = revocation time
var bucketRevoked = []byte("revoked_tokens")

// Bolt is a Registry backed by a BoltDB file so that revocations
// survive process restarts. Same interface as Memory; selected by
// configuration.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt opens (or creates) the registry database at dbPath
func NewBolt(ctx context.Context, dbPath string) (*Bolt, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRevoked); err != nil {
			return fmt.Errorf("failed to create revoked bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db}, nil
}

// Revoke records the token with its revocation time. Idempotent: a
// second revocation overwrites the timestamp and nothing else.
func (b *Bolt) Revoke(ctx context.Context, token string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		if bucket == nil {
			return fmt.Errorf("revoked bucket not found")
		}

		revokedAt := time.Now().UTC().Format(time.RFC3339)
		if err := bucket.Put([]byte(token), []byte(revokedAt)); err != nil {
			return fmt.Errorf("failed to save revoked token: %w", err)
		}

		return nil
	})
}

// IsRevoked reports membership
func (b *Bolt) IsRevoked(ctx context.Context, token string) (bool, error) {
	var revoked bool

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRevoked)
		if bucket == nil {
			return fmt.Errorf("revoked bucket not found")
		}

		revoked = bucket.Get([]byte(token)) != nil
		return nil
	})
	if err != nil {
		return false, err
	}

	return revoked, nil
}

// Close closes the database
func (b *Bolt) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
