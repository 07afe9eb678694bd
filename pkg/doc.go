// Package pkg provides the core libraries for heatmap rendering.
//
// # Overview
//
// Heatmap turns a set of 2D points, optionally weighted, into a colourised
// density image. Every point stamps a radial falloff kernel onto a density
// grid; the grid is normalised to 256 intensity levels and mapped through a
// colour scheme. The pkg directory is organized into three areas:
//
//  1. Domain logic ([heatmap], [colorscheme], [legend], [kml])
//  2. Input and output ([io], [httputil])
//  3. Infrastructure ([pipeline], [cache], [errors], [observability], [buildinfo])
//
// # Architecture
//
// The typical data flow:
//
//	JSON / CSV / SQLite / URL
//	         ↓
//	    [io] package (decode points)
//	         ↓
//	    [heatmap] package (accumulate, normalize, colorize)
//	         ↓
//	    [pipeline] package (encode artifacts, cache results)
//	         ↓
//	PNG / TIFF / KML / legend PNG
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/heatmap/pkg/cache"
//	    "github.com/matzehuels/heatmap/pkg/io"
//	    "github.com/matzehuels/heatmap/pkg/pipeline"
//	)
//
//	points, _ := io.ImportCSV("points.csv", false)
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, _ := runner.Execute(context.Background(), points, pipeline.Options{
//	    DotSize: 40,
//	    Scheme:  "fire",
//	    Formats: []string{"png", "kml"},
//	})
//	png := res.Artifacts["png"]
//
// # Main Packages
//
// [heatmap] - The rendering core: points, bounds, the falloff kernel, density
// accumulation, normalisation and colourisation. Reports a saturation warning
// when dots are too large for the image.
//
// [colorscheme] - 256-entry colour lookup tables. Ships the classic, fire,
// omg, pbj and pgaitch schemes; custom schemes are built from gradients or
// hex lists.
//
// [legend] - Labelled gradient strips showing the density range of a render.
//
// [kml] - KML ground overlays placing a rendered image on a map.
//
// [io] - Point import (JSON, CSV, SQLite) and image export (PNG, TIFF),
// including basemap compositing.
//
// [httputil] - Cached, retrying downloads for remote inputs and basemaps.
//
// [pipeline] - The render pipeline used by both CLI and API. Validates
// options, renders, encodes the requested formats and caches every artifact.
//
// [cache] - Artifact caches (null, file, Redis) and content-addressed keys.
//
// [heatmap]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/heatmap
// [colorscheme]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/colorscheme
// [legend]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/legend
// [kml]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/kml
// [io]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/io
// [httputil]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/httputil
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/heatmap/pkg/buildinfo
package pkg
