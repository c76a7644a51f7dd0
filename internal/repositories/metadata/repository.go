// Package metadata is the auxiliary key/value store that lives next to the
// transactional store. It keeps small session-spanning values such as the
// authorized workspace handle.
package metadata

import (
	"context"
)

type Repository interface {
	// Get returns the raw value for key, or (nil, nil) when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
