package heatmap

import "math"

// DensityGrid holds the accumulated kernel values, one per pixel, indexed
// row*Width+col. Cells are never negative or NaN, but may overflow to +Inf.
type DensityGrid struct {
	Width  int
	Height int
	Cells  []float64
}

// At returns the density of pixel (col, row).
func (g *DensityGrid) At(col, row int) float64 {
	return g.Cells[row*g.Width+col]
}

// KernelRadius is the distance beyond which a point stops contributing.
func KernelRadius(dotSize int) float64 {
	mid := float64(dotSize) / 2
	return math.Sqrt(mid*mid+mid*mid) / 2
}

// Accumulate splats every point onto a zeroed grid of cfg.Width x cfg.Height.
//
// For a point mapped to (px, py) the candidate columns run from
// trunc(trunc(px)-DotSize/2) while j < trunc(px)+DotSize/2 and the candidate
// rows from trunc(py-DotSize/2) while k < trunc(py+DotSize/2). Cells outside
// the grid or farther than [KernelRadius] are skipped.
//
// Accumulate does not validate its arguments; use [Render] for checked input.
func Accumulate(points []Point, b Bounds, cfg Config) *DensityGrid {
	w, h := cfg.Width, cfg.Height
	grid := &DensityGrid{Width: w, Height: h, Cells: make([]float64, w*h)}

	mid := float64(cfg.DotSize) / 2
	radius := KernelRadius(cfg.DotSize)

	for _, p := range points {
		px, py := b.MapToPixel(w, h, p.X, p.Y)

		jLo := math.Trunc(math.Trunc(px) - mid)
		jHi := math.Trunc(px) + mid
		kLo := math.Trunc(py - mid)
		kHi := math.Trunc(py + mid)

		// Only the part of the square that overlaps the grid can contribute.
		jStart, jEnd := clip(jLo, jHi, w)
		kStart, kEnd := clip(kLo, kHi, h)

		v := 1.0
		if cfg.Weighted {
			v = p.Weight
		}

		for j := jStart; j < jEnd && float64(j) < jHi; j++ {
			dx := float64(j) - px
			for k := kStart; k < kEnd && float64(k) < kHi; k++ {
				// Single guard: a cell inside the grid always has an index below w*h.
				if j < 0 || k < 0 || j >= w || k >= h {
					continue
				}
				dy := float64(k) - py
				dist := math.Sqrt(dx*dx + dy*dy)
				if dist > radius {
					continue
				}
				val := v - v*(cfg.Multiplier*dist+cfg.Constant)
				// Also catches NaN from 0*Inf when a zero weight meets a huge multiplier.
				if !(val > 0) {
					val = 0
				}
				grid.Cells[k*w+j] += val
			}
		}
	}
	return grid
}

// clip converts the float range [lo, hi) into an int range restricted to
// [0, n). An empty range is returned as (0, 0).
func clip(lo, hi float64, n int) (int, int) {
	if hi <= 0 || lo >= float64(n) || hi <= lo {
		return 0, 0
	}
	start := 0
	if lo > 0 {
		start = int(lo)
	}
	end := n
	if hi < float64(n) {
		end = int(math.Ceil(hi))
	}
	return start, end
}
