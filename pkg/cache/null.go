package cache

import (
	"context"
	"time"
)

// NullCache stores nothing. The CLI selects it for --no-cache and when no
// cache directory can be resolved, so every frame is rendered afresh.
type NullCache struct{}

// NewNullCache returns a cache on which every lookup misses.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get reports a miss for every frame key.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the encoded frame.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete has nothing to remove.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

func (c *NullCache) Close() error {
	return nil
}

var _ Cache = (*NullCache)(nil)
