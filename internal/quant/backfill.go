package quant

import (
	"image"

	"github.com/spectral-tools/paleta/internal/colour"
	pimage "github.com/spectral-tools/paleta/internal/image"
	"github.com/spectral-tools/paleta/internal/palette"
)

// markerSampleDim bounds the grid used when searching the image for
// representative coordinates after the fact.
const markerSampleDim = 420

// BackfillSamples finds a representative coordinate for every palette entry
// that has none, by scanning a bounded downsample of the original image for
// the opaque pixel closest to each entry's colour. Manually added colours
// gain a marker this way even when no pixel matches them exactly. An image
// with no opaque pixels leaves the entries without samples; overlay
// rendering treats those as unmarkable rather than failing.
func BackfillSamples(p *palette.Palette, img *image.NRGBA, maxDim int) {
	if p == nil || img == nil || p.Len() == 0 {
		return
	}
	if maxDim <= 0 {
		maxDim = markerSampleDim
	}

	type candidate struct {
		index int
		rgb   colour.RGB
		dist  int
		at    palette.Sample
		found bool
	}

	var wanted []*candidate
	for i, e := range p.Entries() {
		if len(e.Samples) == 0 {
			wanted = append(wanted, &candidate{index: i, rgb: e.Color, dist: 1 << 30})
		}
	}
	if len(wanted) == 0 {
		return
	}

	sample, scale := pimage.Resize(img, maxDim)
	bounds := sample.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			off := sample.PixOffset(x, y)
			if sample.Pix[off+3] == 0 {
				continue
			}
			rgb := colour.RGB{R: sample.Pix[off], G: sample.Pix[off+1], B: sample.Pix[off+2]}
			for _, c := range wanted {
				d := sqDist(rgb, c.rgb)
				if d < c.dist {
					c.dist = d
					c.at = palette.Sample{X: x, Y: y}
					c.found = true
				}
			}
		}
	}

	for _, c := range wanted {
		if !c.found {
			continue
		}
		ox, oy := remapCoord(c.at.X, c.at.Y, scale, img.Bounds())
		p.SetSamples(c.index, []palette.Sample{{X: ox, Y: oy}})
	}
}

// sqDist is the squared Euclidean distance between two colours in RGB space.
func sqDist(a, b colour.RGB) int {
	dr := int(a.R) - int(b.R)
	dg := int(a.G) - int(b.G)
	db := int(a.B) - int(b.B)
	return dr*dr + dg*dg + db*db
}
