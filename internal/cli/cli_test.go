package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/matzehuels/heatmap/pkg/errors"
	pkgio "github.com/matzehuels/heatmap/pkg/io"
)

// isolate points the profile and cache lookups at temporary directories.
func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HEATMAP_CACHE", "")
	t.Setenv("HEATMAP_REDIS_URL", "")
	return t.TempDir()
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root.ExecuteContext(context.Background())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "points.csv")
	writeFile(t, input, "x,y\n0,0\n10,10\n")

	err := execute(t, "render", input,
		"--width", "100", "--height", "100", "-d", "10", "--mult", "0",
		"-f", "png,kml,legend")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, name := range []string{"points.png", "points.kml", "points_legend.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	kml, err := os.ReadFile(filepath.Join(dir, "points.kml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(kml), "<href>points.png</href>") {
		t.Errorf("KML does not reference the PNG output:\n%s", kml)
	}

	f, err := os.Open(filepath.Join(dir, "points.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := pkgio.DecodeImage(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Dx(); got != 100 {
		t.Errorf("width = %d, want 100", got)
	}
}

func TestRenderCommandOutput(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "points.json")
	writeFile(t, input, `[[0, 0, 2], [5, 5, 1], [10, 10, 4]]`)
	out := filepath.Join(dir, "nested", "map.tiff")

	if err := execute(t, "render", input, "--weighted", "-f", "tiff", "-o", out, "--no-cache"); err != nil {
		t.Fatalf("render: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Errorf("missing %s: %v", out, err)
	}
}

func TestRenderCommandProfile(t *testing.T) {
	dir := isolate(t)
	profile := filepath.Join(dir, "profile.toml")
	writeFile(t, profile, `
[render]
width = 64
height = 32
dot_size = 8
scheme = "dusk"

[cache]
backend = "none"

[schemes]
dusk = ["#000033", "#ffffff"]
`)
	input := filepath.Join(dir, "points.csv")
	writeFile(t, input, "1,1\n3,4\n")

	if err := execute(t, "--config", profile, "render", input); err != nil {
		t.Fatalf("render: %v", err)
	}
	f, err := os.Open(filepath.Join(dir, "points.png"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := pkgio.DecodeImage(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got.X != 64 || got.Y != 32 {
		t.Errorf("size = %v, want the profile's 64x32", got)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "points.csv")
	writeFile(t, input, "0,0\n1,1\n")

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing input", []string{"render", filepath.Join(dir, "nope.csv")}, errors.ErrCodeFileNotFound},
		{"unknown scheme", []string{"render", input, "-s", "nope"}, errors.ErrCodeSchemeNotFound},
		{"bad format", []string{"render", input, "-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"bad opacity", []string{"render", input, "--opacity", "300"}, errors.ErrCodeInvalidOpacity},
		{"missing basemap", []string{"render", input, "--basemap", filepath.Join(dir, "none.png")}, errors.ErrCodeFileNotFound},
		{"missing profile", []string{"--config", filepath.Join(dir, "none.toml"), "render", input}, errors.ErrCodeFileNotFound},
		{"sqlite without query", []string{"render", input, "--input-format", "sqlite"}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s (%v)", got, tt.code, err)
			}
		})
	}
}

func TestRenderOptions(t *testing.T) {
	isolate(t)
	c := New(io.Discard, LogInfo)

	t.Run("defaults left unset", func(t *testing.T) {
		var flags renderFlags
		cmd := c.renderCommandWith(&flags)
		if err := cmd.ParseFlags(nil); err != nil {
			t.Fatal(err)
		}
		opts, err := c.renderOptions(cmd, &flags)
		if err != nil {
			t.Fatal(err)
		}
		if opts.Opacity != nil || opts.Multiplier != nil || opts.Legend != nil {
			t.Errorf("unset flags produced values: %+v", opts)
		}
		if len(opts.Formats) != 1 || opts.Formats[0] != "png" {
			t.Errorf("Formats = %v, want [png]", opts.Formats)
		}
	})

	t.Run("explicit zeros kept", func(t *testing.T) {
		var flags renderFlags
		cmd := c.renderCommandWith(&flags)
		if err := cmd.ParseFlags([]string{"--opacity", "0", "--mult", "0"}); err != nil {
			t.Fatal(err)
		}
		opts, err := c.renderOptions(cmd, &flags)
		if err != nil {
			t.Fatal(err)
		}
		if opts.Opacity == nil || *opts.Opacity != 0 {
			t.Errorf("Opacity = %v, want 0", opts.Opacity)
		}
		if opts.Multiplier == nil || *opts.Multiplier != 0 {
			t.Errorf("Multiplier = %v, want 0", opts.Multiplier)
		}
	})

	t.Run("vertical legend", func(t *testing.T) {
		var flags renderFlags
		cmd := c.renderCommandWith(&flags)
		if err := cmd.ParseFlags([]string{"--legend-vertical", "--opacity", "200"}); err != nil {
			t.Fatal(err)
		}
		opts, err := c.renderOptions(cmd, &flags)
		if err != nil {
			t.Fatal(err)
		}
		lo := opts.Legend
		if lo == nil || !lo.Vertical || lo.Width != 128 || lo.Height != 1024 || lo.Opacity != 200 {
			t.Errorf("Legend = %+v, want vertical 128x1024 at opacity 200", lo)
		}
	})
}

func TestLegendCommand(t *testing.T) {
	dir := isolate(t)
	out := filepath.Join(dir, "legend.png")

	if err := execute(t, "legend", "-s", "fire", "--max", "1500", "--vertical", "-o", out); err != nil {
		t.Fatalf("legend: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := pkgio.DecodeImage(f)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.Bounds().Size(); got.X != 128 || got.Y != 1024 {
		t.Errorf("size = %v, want 128x1024", got)
	}

	if err := execute(t, "legend", "--x-border", "600", "-o", out); errors.GetCode(err) != errors.ErrCodeInvalidDimensions {
		t.Errorf("oversized border error = %v, want INVALID_DIMENSIONS", err)
	}
}

func TestSchemesCommand(t *testing.T) {
	isolate(t)
	for _, args := range [][]string{{"schemes"}, {"schemes", "--plain"}} {
		if err := execute(t, args...); err != nil {
			t.Errorf("%v: %v", args, err)
		}
	}
}

func TestCacheClear(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "points.csv")
	writeFile(t, input, "0,0\n1,1\n")

	if err := execute(t, "render", input, "--width", "20", "--height", "20"); err != nil {
		t.Fatalf("render: %v", err)
	}
	cacheDir := filepath.Join(os.Getenv("XDG_CACHE_HOME"), appName)
	if n := countFiles(t, cacheDir); n == 0 {
		t.Fatal("render left the cache empty")
	}

	if err := execute(t, "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if n := countFiles(t, cacheDir); n != 0 {
		t.Errorf("%d files left after clear", n)
	}
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return n
}

func TestRenderCommandRemoteInput(t *testing.T) {
	dir := isolate(t)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/data/points.csv":
			_, _ = io.WriteString(w, "0,0\n4,4\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	base := filepath.Join(dir, "remote")
	for i := 0; i < 2; i++ {
		if err := execute(t, "render", srv.URL+"/data/points.csv", "-o", base, "--width", "16", "--height", "16"); err != nil {
			t.Fatalf("render: %v", err)
		}
	}
	if _, err := os.Stat(base + ".png"); err != nil {
		t.Errorf("missing output: %v", err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1 (download cached)", n)
	}

	err := execute(t, "render", srv.URL+"/data/gone.csv", "-o", base)
	if got := errors.GetCode(err); got != errors.ErrCodeNotFound {
		t.Errorf("missing remote input code = %s, want NOT_FOUND (%v)", got, err)
	}
}

func TestLocalName(t *testing.T) {
	tests := map[string]string{
		"points.csv":                          "points.csv",
		"https://example.com/data/points.csv": "points.csv",
		"https://example.com/":                appName,
		"https://example.com":                 appName,
	}
	for in, want := range tests {
		if got := localName(in); got != want {
			t.Errorf("localName(%q) = %q, want %q", in, got, want)
		}
	}
}
