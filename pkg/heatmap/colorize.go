package heatmap

import "github.com/matzehuels/heatmap/pkg/colorscheme"

const (
	// alphaCutoff is the highest intensity that still gets the configured
	// opacity. Anything lighter is fully transparent.
	alphaCutoff = 252

	// saturatedBelow marks intensities counted as "over 95% density".
	saturatedBelow = 0x10

	// saturatedShare is the share of saturated pixels that triggers a warning.
	saturatedShare = 0.8
)

// SaturationWarning is reported when most of the image sits in the densest band.
const SaturationWarning = "80% of output pixels are over 95% density; decrease dot size or increase output resolution"

// ColorStats summarizes one colorization pass.
type ColorStats struct {
	Pixels    int  `json:"pixels"`
	HighCount int  `json:"high_count"`
	Saturated bool `json:"saturated"`
}

// Fraction returns the share of pixels counted in HighCount.
func (s ColorStats) Fraction() float64 {
	if s.Pixels == 0 {
		return 0
	}
	return float64(s.HighCount) / float64(s.Pixels)
}

// Colorize writes RGBA bytes for every intensity into dst, which must hold
// 4 bytes per pixel. Colour channels come from scheme; alpha is opacity for
// intensities up to 252 and 0 above.
func Colorize(in *IntensityGrid, scheme *colorscheme.Scheme, opacity uint8, dst []byte) ColorStats {
	stats := ColorStats{Pixels: len(in.Pix)}
	for i, pix := range in.Pix {
		if pix < saturatedBelow {
			stats.HighCount++
		}
		alpha := opacity
		if pix > alphaCutoff {
			alpha = 0
		}
		c := scheme.Colors[pix]
		o := i * 4
		dst[o] = c.R
		dst[o+1] = c.G
		dst[o+2] = c.B
		dst[o+3] = alpha
	}
	stats.Saturated = float64(stats.HighCount) > float64(stats.Pixels)*saturatedShare
	return stats
}
