// Package config loads heatmap profiles.
//
// A profile is a TOML file holding render defaults, the cache backend, server
// settings and custom colour schemes:
//
//	[render]
//	width = 800
//	height = 600
//	dot_size = 60
//	scheme = "sunset"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[server]
//	addr = ":8080"
//	rate_limit = 120
//
//	[schemes]
//	sunset = ["#2d0052", "#c0267e", "#ff7b39", "#ffffff"]
//
// Environment variables override the file: HEATMAP_CACHE selects the backend
// (file, redis or none), HEATMAP_REDIS_URL the Redis URL and HEATMAP_ADDR the
// server address. Command-line flags override both.
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/heatmap/pkg/cache"
	"github.com/matzehuels/heatmap/pkg/colorscheme"
	"github.com/matzehuels/heatmap/pkg/errors"
	"github.com/matzehuels/heatmap/pkg/pipeline"
)

const appName = "heatmap"

// Environment variables read by [Load].
const (
	EnvCache    = "HEATMAP_CACHE"
	EnvRedisURL = "HEATMAP_REDIS_URL"
	EnvAddr     = "HEATMAP_ADDR"
)

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is one profile.
type Config struct {
	Render  Render              `toml:"render"`
	Cache   Cache               `toml:"cache"`
	Server  Server              `toml:"server"`
	Schemes map[string][]string `toml:"schemes"`
}

// Render holds defaults for pipeline options. Zero values defer to the
// pipeline's own defaults.
type Render struct {
	Width      int      `toml:"width"`
	Height     int      `toml:"height"`
	DotSize    int      `toml:"dot_size"`
	Opacity    *int     `toml:"opacity"`
	Scheme     string   `toml:"scheme"`
	Multiplier *float64 `toml:"multiplier"`
	Constant   float64  `toml:"constant"`
	Formats    []string `toml:"formats"`
}

// Cache selects and configures the artifact cache.
type Cache struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `toml:"addr"`

	// RateLimit is the number of render requests one client may make per minute.
	RateLimit int `toml:"rate_limit"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes"`

	// MaxPixels caps width*height of images rendered per request.
	MaxPixels int `toml:"max_pixels"`

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that sets these headers itself.
	TrustProxy bool `toml:"trust_proxy"`
}

// Default returns the built-in profile.
func Default() *Config {
	return &Config{
		Cache: Cache{Backend: BackendFile},
		Server: Server{
			Addr:         ":8080",
			RateLimit:    60,
			MaxBodyBytes: 32 << 20,
			MaxPixels:    4096 * 4096,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/heatmap/config.toml, falling back to
// ~/.config/heatmap/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// DefaultCacheDir returns $XDG_CACHE_HOME/heatmap, falling back to ~/.cache/heatmap.
func DefaultCacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// Load reads the profile at path and applies environment overrides.
//
// An empty path means [DefaultPath]; a missing default profile is not an
// error. A missing explicit path is FILE_NOT_FOUND.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			cfg := Default()
			cfg.applyEnv(os.Getenv)
			return cfg, nil
		}
		path = p
	}

	f, err := os.Open(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		cfg := Default()
		cfg.applyEnv(os.Getenv)
		return cfg, nil
	case os.IsNotExist(err):
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
	case err != nil:
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// Decode parses a TOML profile on top of [Default] and validates it.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend names, formats and scheme definitions.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case BackendFile, BackendRedis, BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "redis cache needs redis_url")
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return err
	}
	if c.Server.RateLimit < 0 || c.Server.MaxBodyBytes < 0 || c.Server.MaxPixels < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "server limits must not be negative")
	}
	for name, colors := range c.Schemes {
		if err := errors.ValidateSchemeName(name); err != nil {
			return err
		}
		for _, h := range colors {
			if err := errors.ValidateHexColor(h); err != nil {
				return fmt.Errorf("scheme %s: %w", name, err)
			}
		}
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvCache); v != "" {
		c.Cache.Backend = v
	}
	if v := getenv(EnvRedisURL); v != "" {
		c.Cache.RedisURL = v
		if getenv(EnvCache) == "" {
			c.Cache.Backend = BackendRedis
		}
	}
	if v := getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// RegisterSchemes adds the profile's custom schemes to the colour scheme
// registry, in name order.
func (c *Config) RegisterSchemes() error {
	names := make([]string, 0, len(c.Schemes))
	for name := range c.Schemes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		s, err := colorscheme.FromHex(name, c.Schemes[name])
		if err != nil {
			return fmt.Errorf("scheme %s: %w", name, err)
		}
		if err := colorscheme.Register(s); err != nil {
			return err
		}
	}
	return nil
}

// Apply copies profile defaults into fields opts leaves unset.
func (r Render) Apply(opts *pipeline.Options) {
	if opts.Width == 0 {
		opts.Width = r.Width
	}
	if opts.Height == 0 {
		opts.Height = r.Height
	}
	if opts.DotSize == 0 {
		opts.DotSize = r.DotSize
	}
	if opts.Opacity == nil && r.Opacity != nil {
		v := *r.Opacity
		opts.Opacity = &v
	}
	if opts.Scheme == "" {
		opts.Scheme = r.Scheme
	}
	if opts.Multiplier == nil && r.Multiplier != nil {
		v := *r.Multiplier
		opts.Multiplier = &v
	}
	if opts.Constant == 0 {
		opts.Constant = r.Constant
	}
	if len(opts.Formats) == 0 {
		opts.Formats = r.Formats
	}
}

// OpenCache opens the configured backend. The returned keyer scopes keys
// by Prefix when one is set.
func OpenCache(ctx context.Context, c Cache) (cache.Cache, cache.Keyer, error) {
	var keyer cache.Keyer
	if c.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.Prefix+":")
	}

	switch c.Backend {
	case BackendNone:
		return cache.NewNullCache(), keyer, nil
	case BackendRedis:
		rc, err := cache.NewRedisCache(ctx, c.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return rc, keyer, nil
	case BackendFile, "":
		dir := c.Dir
		if dir == "" {
			d, err := DefaultCacheDir()
			if err != nil {
				return cache.NewNullCache(), keyer, nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return fc, keyer, nil
	default:
		return nil, nil, errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q", c.Backend)
	}
}
