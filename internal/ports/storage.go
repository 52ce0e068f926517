// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import "context"

// KVStore persists the enriched catalog cache. Keys are fixed logical names
// owned by the cache manager; values are opaque bytes.
type KVStore interface {
	// Get returns the value for key. ok is false when the key is absent;
	// a missing key is not an error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set overwrites the value for key.
	Set(ctx context.Context, key string, value []byte) error
}

// AtomicKVStore is implemented by stores that can write several keys in one
// transaction. The cache manager prefers it so the hash and catalog are never
// observed out of step.
type AtomicKVStore interface {
	KVStore

	// SetAll writes every key/value pair or none of them.
	SetAll(ctx context.Context, values map[string][]byte) error
}
