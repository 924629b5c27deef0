// Package storage persists budget slots as JSON documents under string
// keys. Each Set is atomic on its own; there are no cross-key
// transactions.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrClosed = errors.New("storage: store is closed")

// Store is the keyed persistence contract.
type Store interface {
	// Get decodes the value stored under key into dst. found is false
	// when nothing is stored under key; dst is left untouched then.
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	// Set replaces the value stored under key.
	Set(ctx context.Context, key string, value any) error
	Close() error
}

// Refresher is implemented by stores that cache their backing data and
// can re-read it when another process may have written.
type Refresher interface {
	Refresh() error
}

// Load returns the value under key, or def when the key is absent.
func Load[T any](ctx context.Context, s Store, key string, def T) (T, error) {
	var v T
	found, err := s.Get(ctx, key, &v)
	if err != nil {
		return def, err
	}
	if !found {
		return def, nil
	}
	return v, nil
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}

func decode(key string, data []byte, dst any) error {
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
