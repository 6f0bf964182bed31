package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a backend when the key is absent
var ErrNotFound = errors.New("storage: key not found")

// ErrDecode wraps failures to parse a stored JSON value
var ErrDecode = errors.New("storage: malformed value")

// KV is the snapshot store. The profile and the meal plan are written whole
// under fixed keys, so a backend needs nothing more.
type KV interface {
	// Get returns the value for key or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value for key (last write wins)
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key; a missing key is not an error
	Delete(ctx context.Context, key string) error

	// Close releases the connection (sqlite/postgres/redis)
	Close() error
}

// LoadJSON decodes the value stored under key into dst.
// It reports false without error when the key is absent.
func LoadJSON(ctx context.Context, kv KV, key string, dst any) (bool, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: decode %s: %w", ErrDecode, key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Put(ctx, key, raw)
}
