package heatmap

import (
	"image"
	"math"

	"github.com/matzehuels/heatmap/pkg/colorscheme"
	"github.com/matzehuels/heatmap/pkg/errors"
)

// MaxPixels caps Width*Height so the grids stay addressable.
const MaxPixels = 1 << 28

// Config controls one render.
type Config struct {
	Width   int `json:"width"`
	Height  int `json:"height"`
	DotSize int `json:"dot_size"`
	Opacity int `json:"opacity"`

	// Falloff coefficients: a pixel at distance d from a point receives
	// v - v*(Multiplier*d + Constant), clamped at zero.
	Multiplier float64 `json:"multiplier"`
	Constant   float64 `json:"constant"`

	// Weighted makes Point.Weight the per-point contribution instead of 1.
	Weighted bool `json:"weighted"`

	// Bounds overrides the data extent when non-nil.
	Bounds *Bounds `json:"bounds,omitempty"`
}

// Validate checks the configuration on its own, without points or buffers.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidDimensions, "width and height must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Width > MaxPixels/c.Height {
		return errors.New(errors.ErrCodeInvalidDimensions, "%dx%d exceeds %d pixels", c.Width, c.Height, MaxPixels)
	}
	if c.Opacity < 0 || c.Opacity > 255 {
		return errors.New(errors.ErrCodeInvalidOpacity, "opacity must be in [0,255], got %d", c.Opacity)
	}
	if c.DotSize <= 0 {
		return errors.New(errors.ErrCodeInvalidDotSize, "dot size must be positive, got %d", c.DotSize)
	}
	if !finite(c.Multiplier) || !finite(c.Constant) {
		return errors.New(errors.ErrCodeInvalidInput, "falloff coefficients must be finite")
	}
	if c.Bounds != nil {
		if err := c.Bounds.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BufferSize returns the number of bytes Render expects in dst.
func (c Config) BufferSize() int {
	return c.Width * c.Height * 4
}

// Result describes a completed render. Pix aliases the caller's buffer.
type Result struct {
	Pix      []byte     `json:"-"`
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Bounds   Bounds     `json:"bounds"`
	MinF     float64    `json:"min_density"`
	MaxF     float64    `json:"max_density"`
	Stats    ColorStats `json:"stats"`
	Warnings []string   `json:"warnings,omitempty"`
}

// Image wraps the output buffer as a non-premultiplied RGBA image without copying.
func (r *Result) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    r.Pix,
		Stride: r.Width * 4,
		Rect:   image.Rect(0, 0, r.Width, r.Height),
	}
}

// Render draws points into dst, which must hold cfg.Width*cfg.Height*4 bytes.
//
// All arguments are validated first. On error dst is left untouched.
func Render(points []Point, scheme *colorscheme.Scheme, dst []byte, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validatePoints(points, cfg.Weighted); err != nil {
		return nil, err
	}
	if scheme == nil {
		return nil, errors.New(errors.ErrCodeInvalidScheme, "color scheme is nil")
	}
	if dst == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "output buffer is nil")
	}
	if len(dst) != cfg.BufferSize() {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"output buffer holds %d bytes, want %d", len(dst), cfg.BufferSize())
	}

	var b Bounds
	if cfg.Bounds != nil {
		b = *cfg.Bounds
	} else {
		b = ResolveBounds(points)
	}

	density := Accumulate(points, b, cfg)
	intensity := Normalize(density)
	if math.IsInf(intensity.MaxF, 1) {
		return nil, errors.New(errors.ErrCodeInvalidPoints,
			"accumulated density overflows float64; scale the weights down")
	}
	stats := Colorize(intensity, scheme, uint8(cfg.Opacity), dst)

	res := &Result{
		Pix:    dst,
		Width:  cfg.Width,
		Height: cfg.Height,
		Bounds: b,
		MinF:   intensity.MinF,
		MaxF:   intensity.MaxF,
		Stats:  stats,
	}
	if stats.Saturated {
		res.Warnings = append(res.Warnings, SaturationWarning)
	}
	return res, nil
}

// RenderFlat is [Render] for a flat x,y[,w] sequence; cfg.Weighted selects the stride.
func RenderFlat(values []float64, scheme *colorscheme.Scheme, dst []byte, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	points, err := PointsFromFlat(values, cfg.Weighted)
	if err != nil {
		return nil, err
	}
	return Render(points, scheme, dst, cfg)
}
