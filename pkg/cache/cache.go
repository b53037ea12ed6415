// Package cache stores pipeline artifacts keyed by content hashes.
//
// Three backends implement [Cache]:
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry, for the CLI
//   - [RedisCache]: shared cache for the HTTP server
//
// Keys come from a [Keyer] so the CLI and the server agree on the layout
// and the server can scope its keys with [NewScopedKeyer].
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the stored data and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default TTLs per artifact kind.
const (
	RouteTTL    = 7 * 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// RouteKeyOpts are the options that change a routing result.
type RouteKeyOpts struct {
	D1          float64 `json:"d1"`
	D2          float64 `json:"d2"`
	MaxRestarts int     `json:"max_restarts"`
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format    string `json:"format"`
	Scale     int    `json:"scale,omitempty"`
	Grid      bool   `json:"grid,omitempty"`
	Obstacles bool   `json:"obstacles,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// RouteKey identifies the routed report of a board.
	RouteKey(boardHash string, opts RouteKeyOpts) string

	// ArtifactKey identifies one rendered artifact of a routed board.
	ArtifactKey(routeHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes the key inputs into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// RouteKey implements Keyer.
func (DefaultKeyer) RouteKey(boardHash string, opts RouteKeyOpts) string {
	return hashKey("route", boardHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(routeHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", routeHash, opts)
}
