package io

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/matzehuels/heatmap/pkg/errors"
	"github.com/matzehuels/heatmap/pkg/heatmap"
)

// Source describes where points come from.
type Source struct {
	Path     string
	Format   string // json, csv or sqlite; derived from the extension when empty
	Query    string // sqlite only
	Weighted bool
}

// Load reads points from src.
func Load(ctx context.Context, src Source) ([]heatmap.Point, error) {
	format := src.Format
	if format == "" {
		format = FormatFromPath(src.Path)
	}
	switch format {
	case "json":
		return ImportJSON(src.Path, src.Weighted)
	case "csv":
		return ImportCSV(src.Path, src.Weighted)
	case "sqlite":
		return QuerySQLite(ctx, src.Path, src.Query, src.Weighted)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat,
			"cannot tell input format of %q (want .json, .csv or .db)", src.Path)
	}
}

// Decode reads points in a streamable format (json or csv) from r. Remote
// inputs go through here since SQLite needs a file on disk.
func Decode(r io.Reader, format string, weighted bool) ([]heatmap.Point, error) {
	switch format {
	case "json":
		return ReadJSON(r, weighted)
	case "csv":
		return ReadCSV(r, weighted)
	case "sqlite":
		return nil, errors.New(errors.ErrCodeUnsupported, "sqlite input must be a local file")
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown input format %q (want json or csv)", format)
	}
}

// FormatFromPath maps a file extension to an input format name.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".csv", ".txt":
		return "csv"
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	}
	return ""
}

// ReadJSON decodes points from r. The stride of flat arrays and the arity of
// nested arrays follow weighted.
func ReadJSON(r io.Reader, weighted bool) ([]heatmap.Point, error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPoints, err, "decode points")
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPoints, "no points in input")
	}

	switch first := bytes.TrimSpace(raw[0]); {
	case len(first) > 0 && first[0] == '[':
		return decodeTuples(raw, weighted)
	case len(first) > 0 && first[0] == '{':
		return decodeObjects(raw, weighted)
	default:
		flat := make([]float64, len(raw))
		for i, m := range raw {
			if err := json.Unmarshal(m, &flat[i]); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidPoints, err, "value %d", i)
			}
		}
		return heatmap.PointsFromFlat(flat, weighted)
	}
}

func decodeTuples(raw []json.RawMessage, weighted bool) ([]heatmap.Point, error) {
	want := 2
	if weighted {
		want = 3
	}
	points := make([]heatmap.Point, len(raw))
	for i, m := range raw {
		var t []float64
		if err := json.Unmarshal(m, &t); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPoints, err, "point %d", i)
		}
		if len(t) != want {
			return nil, errors.New(errors.ErrCodeInvalidPoints, "point %d has %d values, want %d", i, len(t), want)
		}
		points[i] = heatmap.Point{X: t[0], Y: t[1], Weight: 1}
		if weighted {
			points[i].Weight = t[2]
		}
	}
	return points, nil
}

func decodeObjects(raw []json.RawMessage, weighted bool) ([]heatmap.Point, error) {
	points := make([]heatmap.Point, len(raw))
	for i, m := range raw {
		var o struct {
			X *float64 `json:"x"`
			Y *float64 `json:"y"`
			W *float64 `json:"w"`
		}
		if err := json.Unmarshal(m, &o); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPoints, err, "point %d", i)
		}
		if o.X == nil || o.Y == nil {
			return nil, errors.New(errors.ErrCodeInvalidPoints, "point %d needs x and y", i)
		}
		points[i] = heatmap.Point{X: *o.X, Y: *o.Y, Weight: 1}
		if weighted {
			if o.W == nil {
				return nil, errors.New(errors.ErrCodeInvalidPoints, "point %d has no weight", i)
			}
			points[i].Weight = *o.W
		}
	}
	return points, nil
}

// ImportJSON reads a JSON point file.
func ImportJSON(path string, weighted bool) ([]heatmap.Point, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f, weighted)
}

// ReadCSV decodes one point per record from r.
func ReadCSV(r io.Reader, weighted bool) ([]heatmap.Point, error) {
	want := 2
	if weighted {
		want = 3
	}

	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var points []heatmap.Point
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPoints, err, "read csv")
		}
		if len(rec) < want {
			return nil, errors.New(errors.ErrCodeInvalidPoints, "record %d has %d fields, want %d", line, len(rec), want)
		}

		vals := make([]float64, want)
		bad := false
		for i := 0; i < want; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				bad = true
				break
			}
			vals[i] = v
		}
		if bad {
			if len(points) == 0 && line == 1 {
				continue // header
			}
			return nil, errors.New(errors.ErrCodeInvalidPoints, "record %d is not numeric: %v", line, rec)
		}

		p := heatmap.Point{X: vals[0], Y: vals[1], Weight: 1}
		if weighted {
			p.Weight = vals[2]
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPoints, "no points in input")
	}
	return points, nil
}

// ImportCSV reads a CSV point file.
func ImportCSV(path string, weighted bool) ([]heatmap.Point, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f, weighted)
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
