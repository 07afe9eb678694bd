package io

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/heatmap/pkg/errors"
	"github.com/matzehuels/heatmap/pkg/heatmap"
)

func equalPoints(t *testing.T, got, want []heatmap.Point) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d points %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("point %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestReadJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		weighted bool
		want     []heatmap.Point
	}{
		{"flat", `[1, 2, 3, 4]`, false, []heatmap.Point{{X: 1, Y: 2, Weight: 1}, {X: 3, Y: 4, Weight: 1}}},
		{"flat weighted", `[1, 2, 0.5, 3, 4, 2]`, true, []heatmap.Point{{X: 1, Y: 2, Weight: 0.5}, {X: 3, Y: 4, Weight: 2}}},
		{"pairs", `[[1, 2], [3, 4]]`, false, []heatmap.Point{{X: 1, Y: 2, Weight: 1}, {X: 3, Y: 4, Weight: 1}}},
		{"triples", `[[1, 2, 0.25]]`, true, []heatmap.Point{{X: 1, Y: 2, Weight: 0.25}}},
		{"objects", `[{"x": 1, "y": 2}, {"x": -1, "y": 0}]`, false, []heatmap.Point{{X: 1, Y: 2, Weight: 1}, {X: -1, Y: 0, Weight: 1}}},
		{"objects weighted", `[{"x": 1, "y": 2, "w": 3}]`, true, []heatmap.Point{{X: 1, Y: 2, Weight: 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadJSON(strings.NewReader(tt.input), tt.weighted)
			if err != nil {
				t.Fatalf("ReadJSON error: %v", err)
			}
			equalPoints(t, got, tt.want)
		})
	}
}

func TestReadJSONInvalid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		weighted bool
	}{
		{"not json", `nope`, false},
		{"object root", `{"x": 1}`, false},
		{"empty", `[]`, false},
		{"odd flat", `[1, 2, 3]`, false},
		{"pair when weighted", `[[1, 2]]`, true},
		{"missing y", `[{"x": 1}]`, false},
		{"missing weight", `[{"x": 1, "y": 2}]`, true},
		{"string value", `["a", "b"]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.input), tt.weighted)
			if !errors.Is(err, errors.ErrCodeInvalidPoints) {
				t.Errorf("ReadJSON() error = %v, want INVALID_POINTS", err)
			}
		})
	}
}

func TestReadCSV(t *testing.T) {
	input := "# exported from tracker\nlon,lat,weight\n1.5, 2.5, 3\n4,5,6\n"

	got, err := ReadCSV(strings.NewReader(input), true)
	if err != nil {
		t.Fatalf("ReadCSV error: %v", err)
	}
	equalPoints(t, got, []heatmap.Point{{X: 1.5, Y: 2.5, Weight: 3}, {X: 4, Y: 5, Weight: 6}})

	got, err = ReadCSV(strings.NewReader(input), false)
	if err != nil {
		t.Fatalf("ReadCSV(unweighted) error: %v", err)
	}
	equalPoints(t, got, []heatmap.Point{{X: 1.5, Y: 2.5, Weight: 1}, {X: 4, Y: 5, Weight: 1}})
}

func TestReadCSVInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"header only", "x,y\n"},
		{"short record", "1\n"},
		{"bad value after data", "1,2\nfoo,bar\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCSV(strings.NewReader(tt.input), false); !errors.Is(err, errors.ErrCodeInvalidPoints) {
				t.Errorf("ReadCSV() error = %v, want INVALID_POINTS", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "points.json")
	csvPath := filepath.Join(dir, "points.csv")
	if err := os.WriteFile(jsonPath, []byte(`[[0,0],[1,1]]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(csvPath, []byte("0,0\n1,1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for _, p := range []string{jsonPath, csvPath} {
		got, err := Load(ctx, Source{Path: p})
		if err != nil {
			t.Fatalf("Load(%s) error: %v", p, err)
		}
		equalPoints(t, got, []heatmap.Point{{X: 0, Y: 0, Weight: 1}, {X: 1, Y: 1, Weight: 1}})
	}

	if _, err := Load(ctx, Source{Path: filepath.Join(dir, "points.xyz")}); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load(.xyz) error = %v, want INVALID_FORMAT", err)
	}
	if _, err := Load(ctx, Source{Path: filepath.Join(dir, "missing.json")}); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		format string
		input  string
		code   errors.Code
	}{
		{"json", `[0, 0, 1, 1]`, ""},
		{"csv", "0,0\n1,1\n", ""},
		{"sqlite", "", errors.ErrCodeUnsupported},
		{"xml", "<points/>", errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := Decode(strings.NewReader(tt.input), tt.format, false)
			if tt.code != "" {
				if !errors.Is(err, tt.code) {
					t.Errorf("Decode() error = %v, want %s", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}
			equalPoints(t, got, []heatmap.Point{{X: 0, Y: 0, Weight: 1}, {X: 1, Y: 1, Weight: 1}})
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]string{
		"a.json":      "json",
		"A.CSV":       "csv",
		"x/y.txt":     "csv",
		"tracks.db":   "sqlite",
		"t.sqlite3":   "sqlite",
		"image.png":   "",
		"noextension": "",
	}
	for in, want := range tests {
		if got := FormatFromPath(in); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestQuerySQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stmts := []string{
		`CREATE TABLE track (lon REAL, lat REAL, speed REAL, mode TEXT)`,
		`INSERT INTO track VALUES (1.5, 2.5, 10, 'walk')`,
		`INSERT INTO track VALUES (3, 4, 20, 'bike')`,
		`INSERT INTO track VALUES (NULL, 4, 20, 'walk')`,
		`INSERT INTO track VALUES (5, 6, 30, 'walk')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	db.Close()

	ctx := context.Background()
	got, err := QuerySQLite(ctx, path, `SELECT lon, lat, mode FROM track WHERE mode = 'walk' ORDER BY rowid`, false)
	if err != nil {
		t.Fatalf("QuerySQLite error: %v", err)
	}
	equalPoints(t, got, []heatmap.Point{{X: 1.5, Y: 2.5, Weight: 1}, {X: 5, Y: 6, Weight: 1}})

	got, err = QuerySQLite(ctx, path, `SELECT lon, lat, speed FROM track WHERE lon IS NOT NULL ORDER BY rowid`, true)
	if err != nil {
		t.Fatalf("QuerySQLite(weighted) error: %v", err)
	}
	equalPoints(t, got, []heatmap.Point{{X: 1.5, Y: 2.5, Weight: 10}, {X: 3, Y: 4, Weight: 20}, {X: 5, Y: 6, Weight: 30}})

	if _, err := QuerySQLite(ctx, path, `SELECT lon FROM track`, false); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("single column error = %v, want INVALID_INPUT", err)
	}
	if _, err := QuerySQLite(ctx, path, "", false); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty query error = %v, want INVALID_INPUT", err)
	}
	if _, err := QuerySQLite(ctx, filepath.Join(t.TempDir(), "nope.db"), "SELECT 1, 2", false); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing db error = %v, want FILE_NOT_FOUND", err)
	}
}

func testImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestEncodeRoundTrip(t *testing.T) {
	src := testImage(8, 4, color.NRGBA{200, 10, 30, 128})
	src.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 0})

	for _, format := range []string{FormatPNG, FormatTIFF} {
		t.Run(format, func(t *testing.T) {
			data, err := EncodeBytes(src, format)
			if err != nil {
				t.Fatalf("EncodeBytes error: %v", err)
			}
			img, err := DecodeImage(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("DecodeImage error: %v", err)
			}
			if got := img.Bounds(); got != src.Bounds() {
				t.Fatalf("bounds = %v, want %v", got, src.Bounds())
			}
			got := color.NRGBAModel.Convert(img.At(3, 2)).(color.NRGBA)
			if got != (color.NRGBA{200, 10, 30, 128}) {
				t.Errorf("pixel = %v, want {200 10 30 128}", got)
			}
			if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
				t.Errorf("transparent pixel alpha = %d, want 0", a)
			}
		})
	}

	if _, err := EncodeBytes(src, "gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("EncodeBytes(gif) error = %v, want INVALID_FORMAT", err)
	}
}

func TestComposite(t *testing.T) {
	base := testImage(4, 4, color.NRGBA{0, 0, 255, 255})
	overlay := testImage(8, 8, color.NRGBA{0, 0, 0, 0})
	overlay.SetNRGBA(2, 2, color.NRGBA{255, 0, 0, 255})

	out := Composite(base, overlay)
	if got := out.Bounds(); got != overlay.Bounds() {
		t.Fatalf("bounds = %v, want %v", got, overlay.Bounds())
	}
	if got := out.NRGBAAt(2, 2); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("overlay pixel = %v, want red", got)
	}
	if got := out.NRGBAAt(6, 6); got != (color.NRGBA{0, 0, 255, 255}) {
		t.Errorf("basemap pixel = %v, want blue", got)
	}
	if base.NRGBAAt(0, 0) != (color.NRGBA{0, 0, 255, 255}) {
		t.Error("Composite modified the basemap")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "map.png")
	if err := WriteFile(path, []byte("data")); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil || string(got) != "data" {
		t.Errorf("ReadFile() = %q, %v", got, err)
	}
}
