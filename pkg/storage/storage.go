package storage

import (
	"context"
	"encoding/json"
)

// Store is the persistent key/value capability the pipeline depends on. The
// browser-side implementation is extension storage; this module ships an
// in-memory store and a JSON-file store. Values are whole JSON documents:
// there are no partial updates, so last-write-wins is the conflict policy.
type Store interface {
	// Get returns the raw value for key, or nil when the key is absent.
	Get(ctx context.Context, key string) (json.RawMessage, error)

	// Set serializes value and stores it under key, notifying watchers.
	Set(ctx context.Context, key string, value any) error

	// Remove deletes the given keys, notifying watchers with a nil value.
	Remove(ctx context.Context, keys ...string) error

	// Watch registers fn to be called with the new raw value (nil on
	// removal) whenever key changes. The returned func unsubscribes.
	Watch(key string, fn func(json.RawMessage)) (unwatch func())
}
