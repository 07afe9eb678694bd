package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/heatmap/pkg/cache"
	"github.com/matzehuels/heatmap/pkg/errors"
	"github.com/matzehuels/heatmap/pkg/heatmap"
	pkgio "github.com/matzehuels/heatmap/pkg/io"
	"github.com/matzehuels/heatmap/pkg/kml"
	"github.com/matzehuels/heatmap/pkg/legend"
	"github.com/matzehuels/heatmap/pkg/observability"
)

// formatSummary keys the cached render metadata next to the artifacts.
const formatSummary = "summary"

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// summary is the render metadata cached alongside artifacts so that a cache
// hit reports the same bounds, extrema and warnings as a fresh render.
type summary struct {
	Bounds    heatmap.Bounds `json:"bounds"`
	MinF      float64        `json:"min_density"`
	MaxF      float64        `json:"max_density"`
	Pixels    int            `json:"pixels"`
	HighCount int            `json:"high_count"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// Execute renders points and encodes every requested format.
func (r *Runner) Execute(ctx context.Context, points []heatmap.Point, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRenderStart(ctx, len(points), opts.Formats)
	result, err := r.execute(ctx, points, &opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return result, err
}

func (r *Runner) execute(ctx context.Context, points []heatmap.Point, opts *Options) (*Result, error) {
	pointsHash, err := cache.HashJSON(points)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPoints, err, "points are not finite")
	}

	if !opts.Refresh {
		if res, ok := r.fromCache(ctx, pointsHash, opts); ok {
			res.Stats.PointCount = len(points)
			opts.Logger.Debug("served from cache", "points", len(points), "formats", opts.Formats)
			return res, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Artifacts:  make(map[string][]byte, len(opts.Formats)),
		PointsHash: pointsHash,
	}
	result.Stats.PointCount = len(points)

	// Stage 1: Render
	renderStart := time.Now()
	cfg := opts.Config()
	rendered, err := heatmap.Render(points, opts.scheme, make([]byte, cfg.BufferSize()), cfg)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)
	result.Bounds = rendered.Bounds
	result.MinDensity = rendered.MinF
	result.MaxDensity = rendered.MaxF
	result.Warnings = rendered.Warnings
	result.Stats.Pixels = rendered.Stats.Pixels
	result.Stats.HighCount = rendered.Stats.HighCount

	opts.Logger.Info("rendered heatmap",
		"points", len(points),
		"size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"bounds", rendered.Bounds.String(),
		"duration", result.Stats.RenderTime)
	if rendered.Stats.Saturated {
		observability.Pipeline().OnSaturation(ctx, rendered.Stats.Fraction())
		opts.Logger.Warn(heatmap.SaturationWarning, "fraction", rendered.Stats.Fraction())
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 2 and 3: Compose and encode
	encodeStart := time.Now()
	artifacts, err := Encode(rendered, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.EncodeTime = time.Since(encodeStart)

	opts.Logger.Info("encoded outputs",
		"formats", opts.Formats,
		"duration", result.Stats.EncodeTime)

	r.store(ctx, pointsHash, opts, result)
	return result, nil
}

// Encode produces every format in opts.Formats from a finished render.
// opts must have passed ValidateAndSetDefaults.
func Encode(rendered *heatmap.Result, opts *Options) (map[string][]byte, error) {
	var img image.Image = rendered.Image()
	if len(opts.Basemap) > 0 && (opts.wants(FormatPNG) || opts.wants(FormatTIFF)) {
		composed, err := pkgio.CompositeBytes(opts.Basemap, img)
		if err != nil {
			return nil, fmt.Errorf("basemap: %w", err)
		}
		img = composed
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatPNG, FormatTIFF:
			data, err = pkgio.EncodeBytes(img, format)
		case FormatKML:
			data, err = kml.Marshal(opts.KMLHref, rendered.Bounds)
		case FormatLegend:
			var strip image.Image
			strip, err = legend.Render(opts.scheme, rendered.MinF, rendered.MaxF, *opts.Legend)
			if err == nil {
				data, err = pkgio.EncodeBytes(strip, pkgio.FormatPNG)
			}
		default:
			return nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// fromCache returns a result only when every requested artifact and the
// render summary are cached.
func (r *Runner) fromCache(ctx context.Context, pointsHash string, opts *Options) (*Result, bool) {
	hooks := observability.Cache()

	data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(pointsHash, opts.ArtifactKeyOpts(formatSummary)))
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, formatSummary)
		return nil, false
	}
	var s summary
	if err := json.Unmarshal(data, &s); err != nil {
		hooks.OnCacheMiss(ctx, formatSummary)
		return nil, false
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(pointsHash, opts.ArtifactKeyOpts(format)))
		if err != nil || !hit {
			hooks.OnCacheMiss(ctx, format)
			return nil, false
		}
		artifacts[format] = data
	}
	hooks.OnCacheHit(ctx, formatSummary)

	return &Result{
		Artifacts:  artifacts,
		PointsHash: pointsHash,
		Bounds:     s.Bounds,
		MinDensity: s.MinF,
		MaxDensity: s.MaxF,
		Warnings:   s.Warnings,
		Stats:      Stats{Pixels: s.Pixels, HighCount: s.HighCount},
		CacheInfo:  CacheInfo{RenderHit: true},
	}, true
}

// store writes artifacts and the summary. Cache failures are logged, never returned.
func (r *Runner) store(ctx context.Context, pointsHash string, opts *Options, res *Result) {
	hooks := observability.Cache()
	set := func(format string, data []byte) {
		key := r.Keyer.ArtifactKey(pointsHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err != nil {
			opts.Logger.Warn("cache write failed", "format", format, "error", err)
			return
		}
		hooks.OnCacheSet(ctx, format, len(data))
	}

	for format, data := range res.Artifacts {
		set(format, data)
	}
	data, err := json.Marshal(summary{
		Bounds:    res.Bounds,
		MinF:      res.MinDensity,
		MaxF:      res.MaxDensity,
		Pixels:    res.Stats.Pixels,
		HighCount: res.Stats.HighCount,
		Warnings:  res.Warnings,
	})
	if err == nil {
		set(formatSummary, data)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
