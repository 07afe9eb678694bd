// Package legend draws the colour strip that explains a heatmap's scale.
//
// The strip runs from the lightest colour (minimum density) to the densest,
// left to right when horizontal and bottom to top when vertical, surrounded by
// a solid border. Optional labels print the density extrema.
package legend

import (
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/heatmap/pkg/colorscheme"
	"github.com/matzehuels/heatmap/pkg/errors"
)

// Options controls legend layout.
type Options struct {
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	Opacity  int  `json:"opacity"`
	Vertical bool `json:"vertical"`

	// XBorder and YBorder are the border widths on the left/right and
	// top/bottom sides.
	XBorder int `json:"x_border"`
	YBorder int `json:"y_border"`

	// BorderColor and TextColor are RRGGBB hex strings.
	BorderColor string `json:"border_color"`
	TextColor   string `json:"text_color"`

	// ShowText prints the extrema; MinText/MaxText replace the formatted values.
	ShowText bool   `json:"show_text"`
	MinText  string `json:"min_text,omitempty"`
	MaxText  string `json:"max_text,omitempty"`
}

// DefaultOptions returns a 1024x128 horizontal legend with a 5px white border
// and black labels.
func DefaultOptions() Options {
	return Options{
		Width:       1024,
		Height:      128,
		Opacity:     128,
		XBorder:     5,
		YBorder:     5,
		BorderColor: "ffffff",
		TextColor:   "000000",
		ShowText:    true,
	}
}

// Validate checks sizes, opacity and colours.
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidDimensions, "legend size must be positive, got %dx%d", o.Width, o.Height)
	}
	if o.XBorder < 0 || o.YBorder < 0 {
		return errors.New(errors.ErrCodeInvalidDimensions, "legend borders must not be negative")
	}
	if o.Width-2*o.XBorder <= 0 || o.Height-2*o.YBorder <= 0 {
		return errors.New(errors.ErrCodeInvalidDimensions,
			"borders %d/%d leave no room in a %dx%d legend", o.XBorder, o.YBorder, o.Width, o.Height)
	}
	if o.Opacity < 0 || o.Opacity > 255 {
		return errors.New(errors.ErrCodeInvalidOpacity, "opacity must be in [0,255], got %d", o.Opacity)
	}
	if err := errors.ValidateHexColor(o.BorderColor); err != nil {
		return err
	}
	return errors.ValidateHexColor(o.TextColor)
}

// Render draws the legend for scheme. minF and maxF label the ends of the
// strip when o.ShowText is set.
func Render(scheme *colorscheme.Scheme, minF, maxF float64, o Options) (*image.NRGBA, error) {
	if scheme == nil {
		return nil, errors.New(errors.ErrCodeInvalidScheme, "color scheme is nil")
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	img := image.NewNRGBA(image.Rect(0, 0, o.Width, o.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(parseHex(o.BorderColor)), image.Point{}, draw.Src)

	alpha := uint8(o.Opacity)
	if o.Vertical {
		span := float64(o.Height - 2*o.YBorder)
		for y := o.YBorder; y < o.Height-o.YBorder; y++ {
			idx := int(float64(y-o.YBorder) / span * 254)
			c := scheme.Colors[idx].RGBA(alpha)
			for x := o.XBorder; x < o.Width-o.XBorder; x++ {
				img.SetNRGBA(x, y, c)
			}
		}
	} else {
		span := float64(o.Width - 2*o.XBorder)
		for x := o.XBorder; x < o.Width-o.XBorder; x++ {
			idx := int(254 - float64(x-o.XBorder)/span*254)
			c := scheme.Colors[idx].RGBA(alpha)
			for y := o.YBorder; y < o.Height-o.YBorder; y++ {
				img.SetNRGBA(x, y, c)
			}
		}
	}

	if o.ShowText {
		minLabel, maxLabel := o.MinText, o.MaxText
		if minLabel == "" {
			minLabel = PrettyValue(minF)
		}
		if maxLabel == "" {
			maxLabel = PrettyValue(maxF)
		}
		drawLabels(img, minLabel, maxLabel, o)
	}
	return img, nil
}

func drawLabels(img *image.NRGBA, minLabel, maxLabel string, o Options) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(parseHex(o.TextColor)),
		Face: face,
	}
	th := face.Height
	minW := d.MeasureString(minLabel).Ceil()
	maxW := d.MeasureString(maxLabel).Ceil()

	var minAt, maxAt image.Point
	if o.Vertical {
		minAt = image.Pt(o.Width/2-minW/2, o.Height-o.YBorder-th)
		maxAt = image.Pt(o.Width/2-maxW/2, o.YBorder)
	} else {
		minAt = image.Pt(o.XBorder, o.Height/2-th/2)
		maxAt = image.Pt(o.Width-o.XBorder-maxW, o.Height/2-th/2)
	}

	for _, l := range []struct {
		text string
		at   image.Point
	}{{minLabel, minAt}, {maxLabel, maxAt}} {
		// Dot is the baseline origin; labels are positioned by their top-left corner.
		d.Dot = fixed.P(l.at.X, l.at.Y+face.Ascent)
		d.DrawString(l.text)
	}
}

// parseHex converts a validated RRGGBB string into an opaque colour.
func parseHex(s string) color.NRGBA {
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return color.NRGBA{A: 255}
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
