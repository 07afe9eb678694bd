package legend

import (
	"image/color"
	"testing"

	"github.com/matzehuels/heatmap/pkg/colorscheme"
	"github.com/matzehuels/heatmap/pkg/errors"
)

func rampScheme(t *testing.T) *colorscheme.Scheme {
	t.Helper()
	values := make([]int, colorscheme.Size*3)
	for i := 0; i < colorscheme.Size; i++ {
		values[i*3] = i
		values[i*3+1] = 255 - i
		values[i*3+2] = 100
	}
	s, err := colorscheme.FromInts("ramp", values)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func schemeAt(s *colorscheme.Scheme, idx int, alpha uint8) color.NRGBA {
	return s.Colors[idx].RGBA(alpha)
}

func TestRenderHorizontal(t *testing.T) {
	s := rampScheme(t)
	o := DefaultOptions()
	o.ShowText = false
	o.Opacity = 90

	img, err := Render(s, 0, 10, o)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}
	if got := img.Bounds().Size(); got.X != 1024 || got.Y != 128 {
		t.Fatalf("size = %v, want 1024x128", got)
	}

	white := color.NRGBA{255, 255, 255, 255}
	tests := []struct {
		name string
		x, y int
		want color.NRGBA
	}{
		{"top-left border", 0, 0, white},
		{"right border", 1020, 64, white},
		{"bottom border", 500, 125, white},
		{"left end lightest", 5, 64, schemeAt(s, 254, 90)},
		{"right end densest", 1018, 64, schemeAt(s, 0, 90)},
		{"middle", 5 + 507, 20, schemeAt(s, 127, 90)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := img.NRGBAAt(tt.x, tt.y); got != tt.want {
				t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestRenderVertical(t *testing.T) {
	s := rampScheme(t)
	o := DefaultOptions()
	o.ShowText = false
	o.Vertical = true
	o.Width, o.Height = 64, 128
	o.BorderColor = "102030"

	img, err := Render(s, 0, 1, o)
	if err != nil {
		t.Fatalf("Render error: %v", err)
	}

	if got, want := img.NRGBAAt(0, 0), (color.NRGBA{0x10, 0x20, 0x30, 255}); got != want {
		t.Errorf("border = %v, want %v", got, want)
	}
	if got, want := img.NRGBAAt(32, 5), schemeAt(s, 0, 128); got != want {
		t.Errorf("top = %v, want %v", got, want)
	}
	// Row 122 is the last strip row: int(117/118*254) = 251.
	if got, want := img.NRGBAAt(32, 122), schemeAt(s, 251, 128); got != want {
		t.Errorf("bottom = %v, want %v", got, want)
	}
}

func countColor(img interface {
	NRGBAAt(x, y int) color.NRGBA
}, w, h int, c color.NRGBA) int {
	n := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img.NRGBAAt(x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestRenderLabels(t *testing.T) {
	s := rampScheme(t)
	black := color.NRGBA{0, 0, 0, 255}

	o := DefaultOptions()
	o.Width, o.Height = 300, 40

	o.ShowText = false
	plain, err := Render(s, 0, 1500, o)
	if err != nil {
		t.Fatal(err)
	}
	if n := countColor(plain, 300, 40, black); n != 0 {
		t.Errorf("black pixels without text = %d, want 0", n)
	}

	o.ShowText = true
	labelled, err := Render(s, 0, 1500, o)
	if err != nil {
		t.Fatal(err)
	}
	if n := countColor(labelled, 300, 40, black); n == 0 {
		t.Error("expected text pixels with ShowText")
	}

	// Text only touches the left and right ends.
	for y := 0; y < 40; y++ {
		if labelled.NRGBAAt(150, y) != plain.NRGBAAt(150, y) {
			t.Fatalf("centre column changed at row %d", y)
		}
	}
}

func TestRenderValidation(t *testing.T) {
	s := rampScheme(t)
	tests := []struct {
		name   string
		mutate func(*Options)
		code   errors.Code
	}{
		{"zero width", func(o *Options) { o.Width = 0 }, errors.ErrCodeInvalidDimensions},
		{"borders too wide", func(o *Options) { o.XBorder = 600 }, errors.ErrCodeInvalidDimensions},
		{"negative border", func(o *Options) { o.YBorder = -1 }, errors.ErrCodeInvalidDimensions},
		{"opacity", func(o *Options) { o.Opacity = 300 }, errors.ErrCodeInvalidOpacity},
		{"border colour", func(o *Options) { o.BorderColor = "white" }, errors.ErrCodeInvalidInput},
		{"text colour", func(o *Options) { o.TextColor = "12345" }, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := DefaultOptions()
			tt.mutate(&o)
			if _, err := Render(s, 0, 1, o); !errors.Is(err, tt.code) {
				t.Errorf("Render() error = %v, want %v", err, tt.code)
			}
		})
	}

	if _, err := Render(nil, 0, 1, DefaultOptions()); !errors.Is(err, errors.ErrCodeInvalidScheme) {
		t.Errorf("Render(nil scheme) error = %v, want INVALID_SCHEME", err)
	}
}

func TestPrettyValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{0.5, "0.5"},
		{1.5, "1.5"},
		{999, "999"},
		{1000, "1K"},
		{1234, "1.23K"},
		{12345678, "12.3M"},
		{2.5e9, "2.5G"},
		{7e12, "7T"},
		{5e15, "5E+03T"},
		{0.000012, "1.2E-05"},
	}
	for _, tt := range tests {
		if got := PrettyValue(tt.in); got != tt.want {
			t.Errorf("PrettyValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
