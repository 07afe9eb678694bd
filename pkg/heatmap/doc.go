// Package heatmap turns 2D point sets into RGBA heatmap rasters.
//
// # Overview
//
// Rendering runs in five stages, each exposed on its own so callers can stop
// early or inspect intermediate results:
//
//	Points
//	   ↓
//	ResolveBounds      data extent, or a caller override
//	   ↓
//	Accumulate         radial kernel splatted at every point (uses Bounds.MapToPixel)
//	   ↓
//	Normalize          density → 0..255 intensity, 0 = densest
//	   ↓
//	Colorize           intensity → scheme colour, transparent background
//	   ↓
//	RGBA buffer
//
// [Render] runs the whole chain after validating every argument; nothing is
// written to the output buffer when validation fails.
//
// # Kernel
//
// Each point covers the pixels within sqrt(2)*DotSize/4 of its mapped
// position. A covered pixel at distance d receives
//
//	v - v*(Multiplier*d + Constant)
//
// clamped at zero, where v is 1 or the point weight. Contributions add up.
//
// # Degenerate input
//
// When every point shares an X (or Y) coordinate the derived bounds are
// widened by 0.5 on each side of that axis, so a lone point lands in the image
// centre. A density field with no variation normalizes to intensity 255 and
// renders fully transparent. Weights large enough to overflow a cell to +Inf
// are rejected by Render with ErrCodeInvalidPoints.
//
// # Concurrency
//
// Functions in this package hold no shared state. Concurrent calls are safe
// as long as each call gets its own output buffer.
//
// # Quick Start
//
//	scheme, _ := colorscheme.Get("classic")
//	cfg := heatmap.Config{Width: 512, Height: 512, DotSize: 40, Opacity: 128, Multiplier: 2.0 / 40}
//	dst := make([]byte, 512*512*4)
//	res, err := heatmap.Render(points, scheme, dst, cfg)
//	if err != nil {
//	    return err
//	}
//	png.Encode(w, res.Image())
package heatmap
