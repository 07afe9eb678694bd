package io

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/tiff"

	"github.com/matzehuels/heatmap/pkg/errors"
)

// Image formats accepted by [Encode].
const (
	FormatPNG  = "png"
	FormatTIFF = "tiff"
)

// Encode writes img to w as PNG or TIFF.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatPNG:
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		if err := enc.Encode(w, img); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	case FormatTIFF:
		if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return fmt.Errorf("encode tiff: %w", err)
		}
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported image format %q (want png or tiff)", format)
	}
	return nil
}

// EncodeBytes is [Encode] into a byte slice.
func EncodeBytes(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
