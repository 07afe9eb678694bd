package heatmap

import (
	"math"

	"github.com/matzehuels/heatmap/pkg/errors"
)

// Point is one input sample. Weight is only read in weighted mode.
type Point struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Weight float64 `json:"w,omitempty"`
}

// PointsFromFlat converts a flat x,y[,w] sequence into points.
//
// The sequence must hold at least one full tuple and its length must be a
// multiple of the stride (2, or 3 when weighted). Unweighted points get a
// weight of 1.
func PointsFromFlat(values []float64, weighted bool) ([]Point, error) {
	if values == nil {
		return nil, errors.New(errors.ErrCodeInvalidPoints, "points are nil")
	}
	stride := 2
	if weighted {
		stride = 3
	}
	if len(values) < stride {
		return nil, errors.New(errors.ErrCodeInvalidPoints,
			"need at least %d values, got %d", stride, len(values))
	}
	if len(values)%stride != 0 {
		return nil, errors.New(errors.ErrCodeInvalidPoints,
			"value count %d is not a multiple of %d", len(values), stride)
	}

	points := make([]Point, 0, len(values)/stride)
	for i := 0; i < len(values); i += stride {
		p := Point{X: values[i], Y: values[i+1], Weight: 1}
		if weighted {
			p.Weight = values[i+2]
		}
		points = append(points, p)
	}
	return points, nil
}

// Flatten is the inverse of [PointsFromFlat].
func Flatten(points []Point, weighted bool) []float64 {
	stride := 2
	if weighted {
		stride = 3
	}
	out := make([]float64, 0, len(points)*stride)
	for _, p := range points {
		out = append(out, p.X, p.Y)
		if weighted {
			out = append(out, p.Weight)
		}
	}
	return out
}

func validatePoints(points []Point, weighted bool) error {
	if points == nil {
		return errors.New(errors.ErrCodeInvalidPoints, "points are nil")
	}
	if len(points) == 0 {
		return errors.New(errors.ErrCodeInvalidPoints, "at least one point is required")
	}
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) {
			return errors.New(errors.ErrCodeInvalidPoints, "point %d has non-finite coordinates", i)
		}
		if weighted && !finite(p.Weight) {
			return errors.New(errors.ErrCodeInvalidPoints, "point %d has non-finite weight", i)
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
