package shared

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when the key has no value.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is a minimal durable string-keyed blob store. Implementations
// must be safe for concurrent use.
type KeyValueStore interface {
	// Get returns the stored value or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
