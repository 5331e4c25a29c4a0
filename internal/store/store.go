package store

import (
	"context"
	"errors"
)

// KV is the key-value contract every persisted feature depends on.
// Get reports ok=false for absent keys rather than returning an error.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ErrLocked indicates another process holds the store lock.
var ErrLocked = errors.New("store is locked by another teachback process")
