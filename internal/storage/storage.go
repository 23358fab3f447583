package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyKey is returned when trying to read or write a snapshot without a key.
var ErrEmptyKey = errors.New("empty snapshot key")

// ErrCorrupt is returned when a persisted snapshot cannot be decoded.
var ErrCorrupt = errors.New("corrupt snapshot")

// Snapshot keys, one per collection.
const (
	KeyProducts     = "products"
	KeySales        = "sales"
	KeyPendingSales = "pendingSales"
	KeyTempCodes    = "tempCodes"
	KeyTempUsers    = "tempUsers"
	KeyUsers        = "users"
)

// Store is the key-value snapshot layer. Every value is a whole collection
// encoded as JSON; there are no partial updates and the last writer wins.
type Store interface {
	// Load decodes the snapshot stored under key into dst. It reports false
	// when nothing is stored under key, leaving dst untouched.
	Load(ctx context.Context, key string, dst any) (bool, error)
	Save(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Collection gives typed access to one snapshot key.
type Collection[T any] struct {
	store Store
	key   string
}

// NewCollection binds a typed collection to key on store.
func NewCollection[T any](store Store, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

// Key returns the snapshot key the collection is stored under.
func (c *Collection[T]) Key() string {
	return c.key
}

// Load returns the stored collection, or an empty one if the key is absent.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	items := make([]T, 0)
	if _, err := c.store.Load(ctx, c.key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = make([]T, 0)
	}
	return items, nil
}

// Save replaces the stored collection with items.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = make([]T, 0)
	}
	return c.store.Save(ctx, c.key, items)
}

func encode(key string, v any) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot %q: %w", key, err)
	}
	return raw, nil
}

func decode(key string, raw []byte, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: key %q: %v", ErrCorrupt, key, err)
	}
	return nil
}
