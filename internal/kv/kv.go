// Package kv is the flat key-value persistence layer. Each collection of
// the application is stored whole, as one JSON string under one key.
package kv

import (
	"context"
	"errors"
)

// Collection keys.
const (
	KeyTasks         = "tasks"
	KeyCategories    = "categories"
	KeyNotifications = "notifications"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv store closed")

// Store is an opaque string-keyed store. Get reports ok=false for a
// missing key; that is not an error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}
