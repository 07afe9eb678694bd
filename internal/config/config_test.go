package config

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/matzehuels/heatmap/pkg/cache"
	"github.com/matzehuels/heatmap/pkg/colorscheme"
	"github.com/matzehuels/heatmap/pkg/errors"
	"github.com/matzehuels/heatmap/pkg/pipeline"
)

const profile = `
[render]
width = 800
height = 600
dot_size = 60
opacity = 0
multiplier = 0.5
scheme = "cfgsunset"
formats = ["png", "kml"]

[cache]
backend = "none"
prefix = "team-a"

[server]
addr = "127.0.0.1:9000"
rate_limit = 10
trust_proxy = true

[schemes]
cfgsunset = ["#2d0052", "c0267e", "#ffffff"]
`

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(profile))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	if cfg.Render.Width != 800 || cfg.Render.Height != 600 || cfg.Render.DotSize != 60 {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Render.Opacity == nil || *cfg.Render.Opacity != 0 {
		t.Errorf("Opacity = %v, want explicit 0", cfg.Render.Opacity)
	}
	if cfg.Cache.Backend != BackendNone || cfg.Cache.Prefix != "team-a" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" || cfg.Server.RateLimit != 10 || !cfg.Server.TrustProxy {
		t.Errorf("Server = %+v", cfg.Server)
	}
	// Unset keys keep their defaults.
	if cfg.Server.MaxBodyBytes != Default().Server.MaxBodyBytes {
		t.Errorf("MaxBodyBytes = %d, want default", cfg.Server.MaxBodyBytes)
	}
	if cfg.Server.MaxPixels != 4096*4096 {
		t.Errorf("MaxPixels = %d, want default 4096*4096", cfg.Server.MaxPixels)
	}
	if len(cfg.Schemes["cfgsunset"]) != 3 {
		t.Errorf("Schemes = %v", cfg.Schemes)
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"syntax", "[render"},
		{"unknown key", "[render]\ncolour = 1"},
		{"unknown backend", "[cache]\nbackend = \"memcached\""},
		{"redis without url", "[cache]\nbackend = \"redis\""},
		{"bad format", "[render]\nformats = [\"svg\"]"},
		{"bad scheme name", "[schemes]\n\"Bad Name\" = [\"#000000\", \"#ffffff\"]"},
		{"bad scheme colour", "[schemes]\nok = [\"#000000\", \"nothex\"]"},
		{"negative limit", "[server]\nrate_limit = -1"},
		{"negative pixel limit", "[server]\nmax_pixels = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.input)); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tt.input)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv(EnvCache, "")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvAddr, "")

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(profile), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Render.Scheme != "cfgsunset" {
		t.Errorf("Scheme = %q", cfg.Render.Scheme)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDefaultPathMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv(EnvCache, "")
	t.Setenv(EnvRedisURL, "")
	t.Setenv(EnvAddr, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Cache.Backend != BackendFile || cfg.Server.Addr != ":8080" {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "heatmap", "config.toml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}

	t.Setenv("XDG_CACHE_HOME", dir)
	got, err = DefaultCacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "heatmap"); got != want {
		t.Errorf("DefaultCacheDir() = %q, want %q", got, want)
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		wantBackend string
		wantURL     string
		wantAddr    string
	}{
		{"none set", nil, BackendFile, "", ":8080"},
		{"backend only", map[string]string{EnvCache: "none"}, BackendNone, "", ":8080"},
		{"redis url implies redis", map[string]string{EnvRedisURL: "redis://r:6379"}, BackendRedis, "redis://r:6379", ":8080"},
		{"explicit backend wins", map[string]string{EnvCache: "file", EnvRedisURL: "redis://r:6379"}, BackendFile, "redis://r:6379", ":8080"},
		{"addr", map[string]string{EnvAddr: ":9999"}, BackendFile, "", ":9999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.applyEnv(func(k string) string { return tt.env[k] })
			if cfg.Cache.Backend != tt.wantBackend || cfg.Cache.RedisURL != tt.wantURL || cfg.Server.Addr != tt.wantAddr {
				t.Errorf("applyEnv() = %+v %+v, want %s %s %s",
					cfg.Cache, cfg.Server, tt.wantBackend, tt.wantURL, tt.wantAddr)
			}
		})
	}
}

func TestRegisterSchemes(t *testing.T) {
	cfg, err := Decode(strings.NewReader(profile))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.RegisterSchemes(); err != nil {
		t.Fatalf("RegisterSchemes() error: %v", err)
	}

	s, err := colorscheme.Get("cfgsunset")
	if err != nil {
		t.Fatalf("Get(cfgsunset) error: %v", err)
	}
	if got := s.Colors[0].Hex(); got != "#2d0052" {
		t.Errorf("densest colour = %s, want #2d0052", got)
	}
	if got := s.Colors[colorscheme.Size-1].Hex(); got != "#ffffff" {
		t.Errorf("background colour = %s, want #ffffff", got)
	}
	if !slices.Contains(colorscheme.Names(), "cfgsunset") {
		t.Error("Names() is missing the custom scheme")
	}
}

func TestRenderApply(t *testing.T) {
	cfg, err := Decode(strings.NewReader(profile))
	if err != nil {
		t.Fatal(err)
	}

	opts := pipeline.Options{Width: 320}
	cfg.Render.Apply(&opts)

	if opts.Width != 320 {
		t.Errorf("Width = %d, flag value should win", opts.Width)
	}
	if opts.Height != 600 || opts.DotSize != 60 || opts.Scheme != "cfgsunset" {
		t.Errorf("Apply() = %+v", opts)
	}
	if opts.Opacity == nil || *opts.Opacity != 0 {
		t.Errorf("Opacity = %v, want 0 from profile", opts.Opacity)
	}
	if opts.Multiplier == nil || *opts.Multiplier != 0.5 {
		t.Errorf("Multiplier = %v, want 0.5", opts.Multiplier)
	}
	if !slices.Equal(opts.Formats, []string{"png", "kml"}) {
		t.Errorf("Formats = %v", opts.Formats)
	}

	*cfg.Render.Opacity = 99
	if *opts.Opacity != 0 {
		t.Error("Apply() aliases the profile's opacity")
	}
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	c, keyer, err := OpenCache(ctx, Cache{Backend: BackendNone})
	if err != nil {
		t.Fatalf("OpenCache(none) error: %v", err)
	}
	if _, ok := c.(cache.NullCache); !ok {
		t.Errorf("OpenCache(none) = %T, want *cache.NullCache", c)
	}
	if keyer != nil {
		t.Errorf("keyer = %v, want nil without a prefix", keyer)
	}

	dir := t.TempDir()
	c, keyer, err = OpenCache(ctx, Cache{Backend: BackendFile, Dir: dir, Prefix: "p"})
	if err != nil {
		t.Fatalf("OpenCache(file) error: %v", err)
	}
	defer c.Close()
	fc, ok := c.(*cache.FileCache)
	if !ok || fc.Dir() != dir {
		t.Errorf("OpenCache(file) = %T, want *cache.FileCache in %s", c, dir)
	}
	if keyer == nil || !strings.HasPrefix(keyer.ArtifactKey("h", cache.ArtifactKeyOpts{}), "p:artifact:") {
		t.Errorf("scoped keyer missing, got %v", keyer)
	}

	if _, _, err := OpenCache(ctx, Cache{Backend: BackendRedis, RedisURL: "not a url"}); err == nil {
		t.Error("OpenCache(redis) with a bad URL succeeded")
	}
	if _, _, err := OpenCache(ctx, Cache{Backend: "memcached"}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("OpenCache(unknown) error = %v, want INVALID_INPUT", err)
	}
}
