// Package kml writes Google Earth GroundOverlay documents that drape a
// rendered heatmap over its geographic extent.
//
// Point coordinates are taken to be longitude (X) and latitude (Y) in
// degrees; no re-projection is performed.
package kml

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"

	"github.com/golang/geo/s2"

	"github.com/matzehuels/heatmap/pkg/errors"
	"github.com/matzehuels/heatmap/pkg/heatmap"
)

// Namespace is the KML 2.2 namespace.
const Namespace = "http://www.opengis.net/kml/2.2"

type document struct {
	XMLName xml.Name `xml:"kml"`
	Xmlns   string   `xml:"xmlns,attr"`
	Folder  folder   `xml:"Folder"`
}

type folder struct {
	Overlay groundOverlay `xml:"GroundOverlay"`
}

type groundOverlay struct {
	Icon icon      `xml:"Icon"`
	Box  latLonBox `xml:"LatLonBox"`
}

type icon struct {
	Href string `xml:"href"`
}

type latLonBox struct {
	North    string `xml:"north"`
	South    string `xml:"south"`
	East     string `xml:"east"`
	West     string `xml:"west"`
	Rotation int    `xml:"rotation"`
}

// ValidateBounds checks that b describes a real lon/lat box.
func ValidateBounds(b heatmap.Bounds) error {
	if err := b.Validate(); err != nil {
		return err
	}
	sw := s2.LatLngFromDegrees(b.MinY, b.MinX)
	ne := s2.LatLngFromDegrees(b.MaxY, b.MaxX)
	if !sw.IsValid() || !ne.IsValid() {
		return errors.New(errors.ErrCodeInvalidBounds,
			"bounds %v are not valid longitude/latitude degrees", b)
	}
	return nil
}

// Encode writes a GroundOverlay that places the image at href over b.
func Encode(w io.Writer, href string, b heatmap.Bounds) error {
	if href == "" {
		return errors.New(errors.ErrCodeInvalidInput, "overlay image href is empty")
	}
	if err := ValidateBounds(b); err != nil {
		return err
	}

	doc := document{
		Xmlns: Namespace,
		Folder: folder{Overlay: groundOverlay{
			Icon: icon{Href: href},
			Box: latLonBox{
				North: coord(b.MaxY),
				South: coord(b.MinY),
				East:  coord(b.MaxX),
				West:  coord(b.MinX),
			},
		}},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode kml")
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Marshal is [Encode] into a byte slice.
func Marshal(href string, b heatmap.Bounds) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, href, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// coord prints degrees with 16 fractional digits.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 16, 64)
}
