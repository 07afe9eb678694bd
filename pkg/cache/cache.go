// Package cache provides byte-level caching for rendered heatmap artifacts.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// multi-instance servers and [NullCache] when caching is disabled. Keys are
// produced by a [Keyer] so that backends never need to understand render
// options.
package cache

import (
	"context"
	"time"
)

// TTLs for cached entries.
const (
	// ArtifactTTL applies to encoded images, legends and KML documents.
	ArtifactTTL = 7 * 24 * time.Hour

	// SchemeTTL applies to scheme preview swatches served by the API.
	SchemeTTL = 30 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
//
// Get reports (data, true, nil) on a hit and (nil, false, nil) on a miss.
// A ttl of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// ArtifactKeyOpts holds everything that changes the bytes of a rendered artifact.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	DotSize    int     `json:"dot_size"`
	Opacity    int     `json:"opacity"`
	Scheme     string  `json:"scheme"`
	Palette    string  `json:"palette,omitempty"` // hash of the scheme's colour table
	Multiplier float64 `json:"multiplier"`
	Constant   float64 `json:"constant"`
	Weighted   bool    `json:"weighted"`
	Area       string  `json:"area,omitempty"`
	Basemap    string  `json:"basemap,omitempty"` // hash of the basemap image
	Legend     string  `json:"legend,omitempty"`  // hash of the legend options
	Href       string  `json:"href,omitempty"`
}

// Keyer generates artifact cache keys. Point sets themselves are never
// cached; only their encoded outputs are.
type Keyer interface {
	// ArtifactKey identifies one encoded output of a point set.
	ArtifactKey(pointsHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key generator.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ArtifactKey returns "artifact:<sha256(pointsHash, opts)>".
func (DefaultKeyer) ArtifactKey(pointsHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", pointsHash, opts)
}
