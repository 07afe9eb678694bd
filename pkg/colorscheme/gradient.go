package colorscheme

import (
	"sort"
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/matzehuels/heatmap/pkg/errors"
)

// Stop is a gradient key point. Pos runs from 0 (densest) to 1 (background).
type Stop struct {
	Color colorful.Color
	Pos   float64
}

// GradientTable is an ordered list of stops.
type GradientTable []Stop

// At returns the colour at position t by blending the two surrounding stops
// in RGB.
func (g GradientTable) At(t float64) colorful.Color {
	for i := 0; i < len(g)-1; i++ {
		c1, c2 := g[i], g[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			if c2.Pos == c1.Pos {
				return c1.Color
			}
			return c1.Color.BlendRgb(c2.Color, (t-c1.Pos)/(c2.Pos-c1.Pos)).Clamped()
		}
	}
	if t < g[0].Pos {
		return g[0].Color
	}
	return g[len(g)-1].Color
}

// FromGradient samples stops into a 256-entry scheme.
func FromGradient(name string, stops GradientTable) (*Scheme, error) {
	if len(stops) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidScheme, "scheme %q needs at least 2 gradient stops", name)
	}
	g := make(GradientTable, len(stops))
	copy(g, stops)
	sort.SliceStable(g, func(i, j int) bool { return g[i].Pos < g[j].Pos })
	for _, s := range g {
		if s.Pos < 0 || s.Pos > 1 {
			return nil, errors.New(errors.ErrCodeInvalidScheme, "scheme %q stop position %v outside [0,1]", name, s.Pos)
		}
	}

	s := &Scheme{Name: name}
	for i := range s.Colors {
		r, gg, b := g.At(float64(i) / float64(Size-1)).RGB255()
		s.Colors[i] = RGB{r, gg, b}
	}
	return s, nil
}

// FromHex builds a scheme from evenly spaced "#rrggbb" stops, densest first.
func FromHex(name string, hexes []string) (*Scheme, error) {
	if len(hexes) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidScheme, "scheme %q needs at least 2 colours", name)
	}
	stops := make(GradientTable, len(hexes))
	for i, h := range hexes {
		if err := errors.ValidateHexColor(h); err != nil {
			return nil, err
		}
		if h[0] != '#' {
			h = "#" + h
		}
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScheme, err, "scheme %q colour %q", name, h)
		}
		stops[i] = Stop{Color: c, Pos: float64(i) / float64(len(hexes)-1)}
	}
	return FromGradient(name, stops)
}

// builtinStops lists the key points of the shipped schemes, densest first.
var builtinStops = map[string][]string{
	"classic": {"#ff0000", "#ff8c00", "#ffff00", "#00ff00", "#00ffff", "#0000ff", "#ffffff"},
	"fire":    {"#ffffff", "#ffff80", "#ffcc00", "#ff6600", "#cc0000", "#330000", "#000000"},
	"omg":     {"#ff00ff", "#cc00cc", "#9900ff", "#6600cc", "#330066", "#1a0033", "#ffffff"},
	"pbj":     {"#4b0a4b", "#7a1f6e", "#b03a6a", "#d9735a", "#e8a85c", "#f2d28c", "#fff5e0"},
	"pgaitch": {"#00ff80", "#80ff00", "#ffe600", "#ff8000", "#ff0066", "#8000ff", "#000000"},
}

var builtins = sync.OnceValue(func() map[string]*Scheme {
	out := make(map[string]*Scheme, len(builtinStops))
	for name, hexes := range builtinStops {
		s, err := FromHex(name, hexes)
		if err != nil {
			panic("colorscheme: bad built-in " + name + ": " + err.Error())
		}
		out[name] = s
	}
	return out
})
