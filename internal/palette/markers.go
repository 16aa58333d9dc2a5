package palette

import (
	"image"

	"github.com/spectral-tools/paleta/internal/colour"
)

// Marker pairs a palette colour with the coordinates where it was sampled,
// for non-destructive overlay rendering on the original image.
type Marker struct {
	Color   colour.RGB
	Enabled bool
	Points  []Sample
}

// Markers returns one marker per entry in the palette's current order.
// Coordinates are clamped into bounds; back-mapping from a resized
// working copy can round a sample just past the edge. Entries with no
// known location yield an empty point list rather than failing.
func Markers(p *Palette, bounds image.Rectangle) []Marker {
	markers := make([]Marker, 0, p.Len())
	for _, e := range p.Entries() {
		points := make([]Sample, 0, len(e.Samples))
		for _, s := range e.Samples {
			points = append(points, clampSample(s, bounds))
		}
		markers = append(markers, Marker{Color: e.Color, Enabled: e.Enabled, Points: points})
	}
	return markers
}

func clampSample(s Sample, bounds image.Rectangle) Sample {
	if s.X < bounds.Min.X {
		s.X = bounds.Min.X
	}
	if s.X > bounds.Max.X-1 {
		s.X = bounds.Max.X - 1
	}
	if s.Y < bounds.Min.Y {
		s.Y = bounds.Min.Y
	}
	if s.Y > bounds.Max.Y-1 {
		s.Y = bounds.Max.Y - 1
	}
	return s
}
