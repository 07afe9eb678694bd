package heatmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"

	"github.com/matzehuels/heatmap/pkg/errors"
)

// Bounds is the data-space rectangle mapped onto the image.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// degeneratePad is added on both sides of an axis with zero extent.
const degeneratePad = 0.5

// ResolveBounds returns the extrema of the point coordinates. Weights are
// ignored. An axis on which all points agree is widened by 0.5 on each side.
func ResolveBounds(points []Point) Bounds {
	rect := r2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(r2.Point{X: p.X, Y: p.Y})
	}
	if rect.IsEmpty() {
		rect = r2.Rect{X: r1.Interval{}, Y: r1.Interval{}}
	}
	if rect.X.Length() == 0 {
		rect.X = rect.X.Expanded(degeneratePad)
	}
	if rect.Y.Length() == 0 {
		rect.Y = rect.Y.Expanded(degeneratePad)
	}
	return BoundsFromRect(rect)
}

// BoundsFromRect converts an r2 rectangle.
func BoundsFromRect(r r2.Rect) Bounds {
	return Bounds{MinX: r.X.Lo, MinY: r.Y.Lo, MaxX: r.X.Hi, MaxY: r.Y.Hi}
}

// Rect returns the bounds as an r2 rectangle.
func (b Bounds) Rect() r2.Rect {
	return r2.Rect{
		X: r1.Interval{Lo: b.MinX, Hi: b.MaxX},
		Y: r1.Interval{Lo: b.MinY, Hi: b.MaxY},
	}
}

// Validate rejects non-finite values and empty extents.
func (b Bounds) Validate() error {
	if !finite(b.MinX) || !finite(b.MinY) || !finite(b.MaxX) || !finite(b.MaxY) {
		return errors.New(errors.ErrCodeInvalidBounds, "bounds must be finite: %v", b)
	}
	if b.MaxX <= b.MinX {
		return errors.New(errors.ErrCodeInvalidBounds, "max x %v must exceed min x %v", b.MaxX, b.MinX)
	}
	if b.MaxY <= b.MinY {
		return errors.New(errors.ErrCodeInvalidBounds, "max y %v must exceed min y %v", b.MaxY, b.MinY)
	}
	return nil
}

// Contains reports whether (x, y) lies inside the closed rectangle.
func (b Bounds) Contains(x, y float64) bool {
	return b.Rect().ContainsPoint(r2.Point{X: x, Y: y})
}

// MapToPixel converts data coordinates to pixel coordinates. Y is flipped so
// that (MinX, MinY) maps to (0, height) and (MaxX, MaxY) to (width, 0).
// Results are not clamped.
func (b Bounds) MapToPixel(width, height int, x, y float64) (px, py float64) {
	nx := (x - b.MinX) / (b.MaxX - b.MinX)
	ny := (y - b.MinY) / (b.MaxY - b.MinY)
	return nx * float64(width), (1 - ny) * float64(height)
}

// String formats the bounds as "minX,minY,maxX,maxY".
func (b Bounds) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

// ParseBounds parses "minX,minY,maxX,maxY" and validates the result.
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, errors.New(errors.ErrCodeInvalidBounds,
			"area %q: want minX,minY,maxX,maxY", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, errors.Wrap(errors.ErrCodeInvalidBounds, err, "area %q", s)
		}
		v[i] = f
	}
	b := Bounds{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}
	return b, nil
}
