// Package io loads heatmap points from files and databases and writes
// rendered images.
//
// # Point Sources
//
// All readers return []heatmap.Point. JSON input may take any of these shapes:
//
//	[1.0, 2.0, 3.0, 4.0]                      flat x,y (x,y,w when weighted)
//	[[1.0, 2.0], [3.0, 4.0]]                  pairs
//	[[1.0, 2.0, 0.5], [3.0, 4.0, 1.0]]        triples (weighted)
//	[{"x": 1, "y": 2, "w": 0.5}]              objects
//
// CSV input has one point per record (x,y or x,y,w); a non-numeric first
// record is treated as a header and lines starting with '#' are skipped.
//
// SQLite databases are read with a caller-supplied query whose first two
// (or three, when weighted) columns are x, y and the weight:
//
//	pts, err := io.QuerySQLite(ctx, "tracks.db",
//	    "SELECT longitude, latitude FROM points WHERE mode = 'walk'", false)
//
// [Load] picks the reader from the file extension. [Decode] reads JSON or
// CSV from any reader, such as a downloaded body.
//
// # Image Output
//
// [Encode] writes PNG or TIFF. [Composite] draws a heatmap over a basemap
// image, scaling the basemap to the heatmap size first.
package io
