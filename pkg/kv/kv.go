// Package kv defines the durable key-value byte store the dashboard persists
// its collections into, plus Redis, MongoDB and in-memory backends.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a durable byte store addressed by string keys. Set always
// overwrites the whole value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
	Close() error
}
