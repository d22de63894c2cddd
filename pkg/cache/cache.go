// Package cache stores rendered artifacts keyed by everything that affects
// their bytes.
//
// # Backends
//
//   - [FileCache]: expiry-stamped files under a local directory, used by the CLI
//   - [RedisCache]: shared cache for preview servers behind a load balancer
//   - [NullCache]: never stores anything
//
// # Keys
//
// A [Keyer] turns a scene hash plus per-artifact options into a cache key.
// The scene hash (see [SceneHash]) covers the project fields and base image
// bytes a frame depends on, so editing any of them invalidates every key
// derived from it without explicit deletes.
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.FrameKey(scene, cache.FrameKeyOpts{Counter: 5000, Day: 3, Zoom: 1})
//	if data, ok, _ := c.Get(ctx, key); ok {
//	    return data
//	}
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is a byte store with per-entry expiry. A ttl of zero never expires.
type Cache interface {
	// Get returns the stored data and true, or nil and false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per artifact kind.
const (
	FrameTTL  = time.Hour
	MaskTTL   = time.Hour
	ExportTTL = 24 * time.Hour
)

// FrameKeyOpts identifies one composed frame of a scene.
type FrameKeyOpts struct {
	Counter float64 `json:"counter"`
	Day     int     `json:"day"`
	Zoom    float64 `json:"zoom"`
	Elapsed int64   `json:"elapsed_ms"`
	Scale   float64 `json:"scale,omitempty"`
	Look    string  `json:"look,omitempty"` // tone and overlay switches
}

// MaskKeyOpts identifies one mask state of a scene.
type MaskKeyOpts struct {
	Pixels int    `json:"pixels"`
	Color  string `json:"color"`
}

// ExportKeyOpts identifies one exported animation of a scene.
type ExportKeyOpts struct {
	Format     string  `json:"format"`
	Day        int     `json:"day"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	DurationMS int64   `json:"duration_ms"`
	EaseMS     int64   `json:"ease_ms"`
	FPS        int     `json:"fps"`
	Scale      float64 `json:"scale,omitempty"`
	Look       string  `json:"look,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	FrameKey(scene string, opts FrameKeyOpts) string
	MaskKey(scene string, opts MaskKeyOpts) string
	ExportKey(scene string, opts ExportKeyOpts) string
}

// DefaultKeyer hashes the options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// FrameKey returns "frame:<sha256>".
func (DefaultKeyer) FrameKey(scene string, opts FrameKeyOpts) string {
	return hashKey("frame", scene, opts)
}

// MaskKey returns "mask:<sha256>".
func (DefaultKeyer) MaskKey(scene string, opts MaskKeyOpts) string {
	return hashKey("mask", scene, opts)
}

// ExportKey returns "export:<format>:<sha256>".
func (DefaultKeyer) ExportKey(scene string, opts ExportKeyOpts) string {
	return hashKey(fmt.Sprintf("export:%s", opts.Format), scene, opts)
}
