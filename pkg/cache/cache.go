// Package cache stores derived survey artifacts keyed by snapshot content.
//
// Compliance reports, layouts and rendered artifacts are pure functions of a
// snapshot, so a hash of the snapshot JSON plus the render options is a
// complete cache key. Three backends implement [Cache]:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the API server
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// # Keys
//
// A [Keyer] builds keys; wrap it in [NewScopedKeyer] to namespace a shared
// backend:
//
//	k := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "v1.2.0:")
//	key := k.ArtifactKey(cache.Hash(snapshot), cache.ArtifactKeyOpts{Format: "svg"})
package cache

import (
	"context"
	"time"
)

// Default entry lifetimes.
const (
	ReportTTL   = 24 * time.Hour
	LayoutTTL   = 24 * time.Hour
	ArtifactTTL = 7 * 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Keyer derives cache keys from a snapshot hash.
type Keyer interface {
	ReportKey(surveyHash string) string
	LayoutKey(surveyHash string) string
	ArtifactKey(surveyHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts lists every option that changes a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string  `json:"format"`
	Title    string  `json:"title,omitempty"`
	Legend   bool    `json:"legend,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Breakers bool    `json:"breakers,omitempty"`
	Diagram  bool    `json:"diagram,omitempty"`
	Chart    bool    `json:"chart,omitempty"`
}

// DefaultKeyer is the unscoped [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a [DefaultKeyer].
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ReportKey keys a compliance report.
func (DefaultKeyer) ReportKey(surveyHash string) string { return "report:" + surveyHash }

// LayoutKey keys a one-line layout.
func (DefaultKeyer) LayoutKey(surveyHash string) string { return "layout:" + surveyHash }

// ArtifactKey keys a rendered artifact.
func (DefaultKeyer) ArtifactKey(surveyHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", surveyHash, opts)
}
