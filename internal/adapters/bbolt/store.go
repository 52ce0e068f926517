// Package bbolt implements ports.AtomicKVStore using bbolt (embedded B+ tree).
// All keys live in one top-level bucket. Writes are transactional: a crash
// mid-write cannot corrupt previously committed data, and SetAll commits every
// key or none.
package bbolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultBucket holds the catalog cache keys.
var DefaultBucket = []byte("zeal")

// Store implements ports.AtomicKVStore backed by bbolt.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// NewStore opens (or creates) a bbolt database at the given path.
// The parent directory is created if needed.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("bbolt dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db, bucket: DefaultBucket}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	var (
		out   []byte
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := b.Get([]byte(key)); v != nil {
			out = make([]byte, len(v))
			copy(out, v)
			found = true
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("bbolt get %q: %w", key, err)
	}
	return out, found, nil
}

// Set overwrites the value for key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetAll(ctx, map[string][]byte{key: value})
}

// SetAll writes every entry in a single transaction.
func (s *Store) SetAll(_ context.Context, entries map[string][]byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		for k, v := range entries {
			if v == nil {
				v = []byte{}
			}
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bbolt put: %w", err)
	}
	return nil
}

// Clear removes every key. Idempotent: clearing an empty store is not an error.
func (s *Store) Clear(_ context.Context) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err == bolt.ErrBucketNotFound {
			return nil // idempotent
		} else {
			return err
		}
	})
}
