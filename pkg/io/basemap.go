package io

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/matzehuels/heatmap/pkg/errors"
)

// DecodeImage reads a PNG, JPEG or TIFF image.
func DecodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode image")
	}
	return img, nil
}

// LoadImage reads an image file.
func LoadImage(path string) (image.Image, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := DecodeImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Composite scales base to the size of overlay and draws overlay on top.
// Neither input is modified.
func Composite(base image.Image, overlay image.Image) *image.NRGBA {
	r := overlay.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.CatmullRom.Scale(out, out.Bounds(), base, base.Bounds(), xdraw.Src, nil)
	draw.Draw(out, out.Bounds(), overlay, r.Min, draw.Over)
	return out
}

// CompositeBytes decodes an encoded basemap and composites overlay on it.
func CompositeBytes(basemap []byte, overlay image.Image) (*image.NRGBA, error) {
	base, err := DecodeImage(bytes.NewReader(basemap))
	if err != nil {
		return nil, err
	}
	return Composite(base, overlay), nil
}
