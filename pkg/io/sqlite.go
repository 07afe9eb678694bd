package io

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/heatmap/pkg/errors"
	"github.com/matzehuels/heatmap/pkg/heatmap"
)

// QuerySQLite runs query against the database at path and reads x, y and,
// when weighted, the weight from the first columns of every row.
func QuerySQLite(ctx context.Context, path, query string, weighted bool) ([]heatmap.Point, error) {
	if query == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "sqlite source needs a query")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	return ReadRows(ctx, db, query, weighted)
}

// ReadRows runs query on db and converts each row into a point.
func ReadRows(ctx context.Context, db *sql.DB, query string, weighted bool, args ...any) ([]heatmap.Point, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "query points")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	want := 2
	if weighted {
		want = 3
	}
	if len(cols) < want {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"query returns %d columns, want at least %d", len(cols), want)
	}

	var points []heatmap.Point
	// Columns past the point fields are scanned and ignored.
	dest := make([]any, len(cols))
	vals := make([]sql.NullFloat64, want)
	for i := range dest {
		if i < want {
			dest[i] = &vals[i]
		} else {
			dest[i] = new(any)
		}
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPoints, err, "scan row %d", len(points)+1)
		}
		if !vals[0].Valid || !vals[1].Valid {
			continue
		}
		p := heatmap.Point{X: vals[0].Float64, Y: vals[1].Float64, Weight: 1}
		if weighted {
			if !vals[2].Valid {
				continue
			}
			p.Weight = vals[2].Float64
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	if len(points) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidPoints, "query returned no points")
	}
	return points, nil
}
