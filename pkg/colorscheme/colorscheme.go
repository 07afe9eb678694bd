// Package colorscheme provides the 256-entry colour lookup tables used to
// colour heatmap intensities.
//
// Index 0 is the colour of the densest pixels, index 255 the colour of empty
// background (which the renderer makes fully transparent anyway). Built-in
// schemes are generated from a handful of gradient stops:
//
//	s, err := colorscheme.Get("classic")
//	rgb := s.Colors[0] // hottest colour
//
// Custom schemes can be built from 768 integers ([FromInts]), from gradient
// stops ([FromGradient], [FromHex]) and registered under a name with [Register].
package colorscheme

import (
	"image/color"
	"sort"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/heatmap/pkg/errors"
)

// Size is the number of entries in every scheme.
const Size = 256

// RGB is one lookup table entry.
type RGB struct {
	R, G, B uint8
}

// RGBA returns the entry as an image colour with the given alpha.
func (c RGB) RGBA(alpha uint8) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

// Hex returns the entry as "#rrggbb".
func (c RGB) Hex() string {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}.Hex()
}

// Scheme is a named colour lookup table.
type Scheme struct {
	Name   string
	Colors [Size]RGB
}

// Flat returns the table as 768 integers laid out r0,g0,b0,r1,g1,b1,...
func (s *Scheme) Flat() []int {
	out := make([]int, 0, Size*3)
	for _, c := range s.Colors {
		out = append(out, int(c.R), int(c.G), int(c.B))
	}
	return out
}

// FromInts builds a scheme from 768 integers in r,g,b order, each in [0,255].
func FromInts(name string, values []int) (*Scheme, error) {
	if len(values) != Size*3 {
		return nil, errors.New(errors.ErrCodeInvalidScheme,
			"scheme %q needs %d values, got %d", name, Size*3, len(values))
	}
	s := &Scheme{Name: name}
	for i := range s.Colors {
		r, g, b := values[i*3], values[i*3+1], values[i*3+2]
		if !inByte(r) || !inByte(g) || !inByte(b) {
			return nil, errors.New(errors.ErrCodeInvalidScheme,
				"scheme %q entry %d out of range: (%d,%d,%d)", name, i, r, g, b)
		}
		s.Colors[i] = RGB{uint8(r), uint8(g), uint8(b)}
	}
	return s, nil
}

func inByte(v int) bool { return v >= 0 && v <= 255 }

var (
	registryMu sync.RWMutex
	registry   = map[string]*Scheme{}
)

// Register makes a custom scheme available to [Get] and [Names].
// Registering a built-in name replaces the built-in.
func Register(s *Scheme) error {
	if s == nil {
		return errors.New(errors.ErrCodeInvalidScheme, "scheme is nil")
	}
	if err := errors.ValidateSchemeName(s.Name); err != nil {
		return err
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.Name] = s
	return nil
}

// Get returns the scheme registered under name.
func Get(name string) (*Scheme, error) {
	if err := errors.ValidateSchemeName(name); err != nil {
		return nil, err
	}
	registryMu.RLock()
	s, ok := registry[name]
	registryMu.RUnlock()
	if ok {
		return s, nil
	}
	if s, ok := builtins()[name]; ok {
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeSchemeNotFound,
		"unknown color scheme: %s (available: %v)", name, Names())
}

// Names returns every available scheme name in sorted order.
func Names() []string {
	seen := make(map[string]bool)
	for n := range builtins() {
		seen[n] = true
	}
	registryMu.RLock()
	for n := range registry {
		seen[n] = true
	}
	registryMu.RUnlock()

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// resetRegistry drops custom schemes. Used by tests.
func resetRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = map[string]*Scheme{}
}
