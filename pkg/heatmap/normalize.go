package heatmap

import "math"

// IntensityGrid holds one byte per pixel. 0 marks the densest pixels and 255
// the emptiest.
type IntensityGrid struct {
	Width  int
	Height int
	Pix    []uint8

	// MinF and MaxF are the density extrema, kept for legends.
	MinF float64
	MaxF float64
}

// Normalize maps densities onto 255 - round((c-MinF)/(MaxF-MinF)*255).
// A grid without variation maps to 255 everywhere. Cells that overflowed to
// +Inf saturate at 0 and the rest are scaled against the largest finite cell.
func Normalize(g *DensityGrid) *IntensityGrid {
	out := &IntensityGrid{Width: g.Width, Height: g.Height, Pix: make([]uint8, len(g.Cells))}
	if len(g.Cells) == 0 {
		return out
	}

	minF, maxF := g.Cells[0], g.Cells[0]
	topFinite := math.Inf(-1)
	for _, c := range g.Cells {
		if c > maxF {
			maxF = c
		}
		if c < minF {
			minF = c
		}
		if c > topFinite && !math.IsInf(c, 1) {
			topFinite = c
		}
	}
	out.MinF, out.MaxF = minF, maxF

	span := maxF - minF
	if math.IsInf(maxF, 1) {
		span = topFinite - minF
	}
	for i, c := range g.Cells {
		out.Pix[i] = intensity(c, minF, span)
	}
	return out
}

func intensity(c, minF, span float64) uint8 {
	switch {
	case math.IsInf(c, 1):
		return 0
	case !(span > 0) || math.IsInf(span, 1):
		return 255
	}
	t := (c - minF) / span
	if !(t > 0) {
		return 255
	}
	if t >= 1 {
		return 0
	}
	return 255 - uint8(math.Round(t*255))
}
