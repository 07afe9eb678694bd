// Package pipeline turns a point set into encoded heatmap artifacts.
//
// This package is the single place where CLI and API requests are validated,
// defaulted, rendered and encoded. By centralizing this logic, both entry
// points produce identical bytes for identical input and share one cache.
//
// # Stages
//
//  1. Render: accumulate, normalize and colorize the points (pkg/heatmap)
//  2. Compose: optionally draw the heatmap over a basemap image
//  3. Encode: produce each requested format (PNG, TIFF, KML, legend PNG)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, points, pipeline.Options{
//	    Width:   800,
//	    Height:  600,
//	    Formats: []string{"png", "legend"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	png := result.Artifacts["png"]
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/heatmap/pkg/cache"
	"github.com/matzehuels/heatmap/pkg/colorscheme"
	"github.com/matzehuels/heatmap/pkg/errors"
	"github.com/matzehuels/heatmap/pkg/heatmap"
	"github.com/matzehuels/heatmap/pkg/legend"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultWidth is the default output width in pixels.
	DefaultWidth = 1024

	// DefaultHeight is the default output height in pixels.
	DefaultHeight = 1024

	// DefaultDotSize is the default kernel footprint in pixels.
	DefaultDotSize = 150

	// DefaultOpacity is the alpha of every covered pixel.
	DefaultOpacity = 128

	// DefaultScheme is the default colour scheme name.
	DefaultScheme = "classic"

	// DefaultKMLHref is the overlay image reference written into KML output.
	DefaultKMLHref = "heatmap.png"
)

// Format constants for output formats.
const (
	FormatPNG    = "png"
	FormatTIFF   = "tiff"
	FormatKML    = "kml"
	FormatLegend = "legend"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatPNG:    true,
	FormatTIFF:   true,
	FormatKML:    true,
	FormatLegend: true,
}

// ContentType returns the MIME type of an artifact format.
func ContentType(format string) string {
	switch format {
	case FormatTIFF:
		return "image/tiff"
	case FormatKML:
		return "application/vnd.google-earth.kml+xml"
	default:
		return "image/png"
	}
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one render.
// This struct supports JSON serialization for API requests.
type Options struct {
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	DotSize int    `json:"dot_size,omitempty"`
	Opacity *int   `json:"opacity,omitempty"` // nil means DefaultOpacity; 0 is fully transparent
	Scheme  string `json:"scheme,omitempty"`

	// Multiplier defaults to 2/DotSize when nil. An explicit 0 disables falloff.
	Multiplier *float64 `json:"multiplier,omitempty"`
	Constant   float64  `json:"constant,omitempty"`
	Weighted   bool     `json:"weighted,omitempty"`

	// Area is "minX,minY,maxX,maxY" and replaces the data extent when set.
	Area string `json:"area,omitempty"`

	Formats []string `json:"formats,omitempty"`

	// Basemap is an encoded PNG/JPEG/TIFF image the heatmap is drawn over.
	Basemap []byte `json:"basemap,omitempty"`

	// Legend controls the "legend" artifact; nil means legend.DefaultOptions.
	Legend *legend.Options `json:"legend,omitempty"`

	// KMLHref is the image reference written into KML output.
	KMLHref string `json:"kml_href,omitempty"`

	// Refresh bypasses cache reads; results are still written.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
	bounds    *heatmap.Bounds
	scheme    *colorscheme.Scheme
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Artifacts contains encoded outputs keyed by format.
	Artifacts map[string][]byte

	// PointsHash is the content hash of the input points.
	PointsHash string

	// Bounds is the data extent the image covers.
	Bounds heatmap.Bounds

	// MinDensity and MaxDensity are the density extrema, for legends.
	MinDensity float64
	MaxDensity float64

	// Warnings carries non-fatal render diagnostics.
	Warnings []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	PointCount int
	Pixels     int
	HighCount  int
	RenderTime time.Duration
	EncodeTime time.Duration
}

// CacheInfo tracks cache hits.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: png, tiff, kml, legend)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, dropping blanks and duplicates.
func ParseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" && !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()

	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	scheme, err := colorscheme.Get(o.Scheme)
	if err != nil {
		return err
	}
	if o.Area != "" {
		b, err := heatmap.ParseBounds(o.Area)
		if err != nil {
			return err
		}
		o.bounds = &b
	}
	if err := o.Config().Validate(); err != nil {
		return err
	}
	if o.wants(FormatLegend) {
		if err := o.Legend.Validate(); err != nil {
			return err
		}
	}

	o.scheme = scheme
	o.validated = true
	return nil
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.DotSize == 0 {
		o.DotSize = DefaultDotSize
	}
	if o.Opacity == nil {
		v := DefaultOpacity
		o.Opacity = &v
	}
	if o.Scheme == "" {
		o.Scheme = DefaultScheme
	}
	if o.Multiplier == nil && o.DotSize > 0 {
		m := 2 / float64(o.DotSize)
		o.Multiplier = &m
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatPNG}
	}
	if o.Legend == nil && o.wants(FormatLegend) {
		lo := legend.DefaultOptions()
		lo.Opacity = *o.Opacity
		o.Legend = &lo
	}
	if o.KMLHref == "" {
		o.KMLHref = DefaultKMLHref
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Config returns the core render configuration.
func (o *Options) Config() heatmap.Config {
	cfg := heatmap.Config{
		Width:    o.Width,
		Height:   o.Height,
		DotSize:  o.DotSize,
		Constant: o.Constant,
		Weighted: o.Weighted,
		Bounds:   o.bounds,
	}
	if o.Opacity != nil {
		cfg.Opacity = *o.Opacity
	}
	if o.Multiplier != nil {
		cfg.Multiplier = *o.Multiplier
	}
	return cfg
}

// ArtifactKeyOpts returns cache key options for one output format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	cfg := o.Config()
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Width:      cfg.Width,
		Height:     cfg.Height,
		DotSize:    cfg.DotSize,
		Opacity:    cfg.Opacity,
		Scheme:     o.Scheme,
		Multiplier: cfg.Multiplier,
		Constant:   cfg.Constant,
		Weighted:   cfg.Weighted,
		Area:       o.Area,
		Palette:    SchemeHash(o.scheme),
	}
	if len(o.Basemap) > 0 && format != FormatKML && format != FormatLegend {
		k.Basemap = cache.Hash(o.Basemap)
	}
	switch format {
	case FormatLegend:
		if o.Legend != nil {
			k.Legend, _ = cache.HashJSON(o.Legend)
		}
	case FormatKML:
		k.Href = o.KMLHref
	}
	return k
}

// SchemeHash fingerprints a colour table, so a scheme redefined under the
// same name by a profile does not hit artifacts rendered with its old colours.
func SchemeHash(s *colorscheme.Scheme) string {
	if s == nil {
		return ""
	}
	h, _ := cache.HashJSON(s.Flat())
	return h
}

func (o *Options) wants(format string) bool {
	return slices.Contains(o.Formats, format)
}
