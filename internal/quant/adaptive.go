package quant

import (
	"fmt"
	"image"
	"math"

	"github.com/spectral-tools/paleta/internal/colour"
	pimage "github.com/spectral-tools/paleta/internal/image"
	"github.com/spectral-tools/paleta/internal/palette"
)

// Adaptive selects up to n representative colours from the image's actual
// colour distribution. Large images are sampled through a bounded grid
// (MaxQuantDim on the longest edge); the original image is never altered.
// Each returned entry carries the count of sampled pixels whose nearest
// selected colour it is, plus back-mapped coordinates in original-image
// space. Entries come back in descending-frequency order.
//
// Requesting more colours than the image has distinct colours returns the
// distinct colours with exact counts, not an error. A count above the hard
// limit fails with ErrExcessiveCount unless Force is set; confirmation
// policy for the band below the hard limit lives with the caller.
func Adaptive(img *image.NRGBA, n int, opts Options) (*palette.Palette, error) {
	decision, err := CheckCount(n, effectiveLimits(opts))
	if err != nil {
		return nil, err
	}
	if decision == DecisionRejected && !opts.Force {
		return nil, fmt.Errorf("%w: %d exceeds limit of %d",
			ErrExcessiveCount, n, effectiveLimits(opts).HardLimit)
	}

	maxQuantDim := opts.MaxQuantDim
	if maxQuantDim <= 0 {
		maxQuantDim = DefaultOptions().MaxQuantDim
	}
	sample, scale := pimage.Resize(img, maxQuantDim)

	pixels := collectOpaque(sample)
	if len(pixels) == 0 {
		return nil, ErrEmptyImage
	}

	if distinctCount(pixels) <= n {
		// Fewer colours present than requested: return them all with
		// exact counts over the sampling grid.
		return exhaustiveScan(sample, scale, img.Bounds(), opts)
	}

	selected, err := selectColours(opts.Algorithm, pixels, n)
	if err != nil {
		return nil, err
	}
	selected = dedupeColours(selected)

	entries := attribute(pixels, selected, scale, img.Bounds(), opts.sampleCap())
	sortByCountDesc(entries)
	return palette.New(entries), nil
}

func effectiveLimits(opts Options) Limits {
	if opts.Limits.HardLimit > 0 {
		return opts.Limits
	}
	return DefaultLimits()
}

// distinctCount returns the number of unique colours among the pixels.
func distinctCount(pixels []opaquePixel) int {
	seen := make(map[[3]uint8]struct{})
	for _, px := range pixels {
		seen[[3]uint8{px.rgb.R, px.rgb.G, px.rgb.B}] = struct{}{}
	}
	return len(seen)
}

// dedupeColours removes duplicate selections, keeping the first occurrence.
// Palettes never hold the same colour twice.
func dedupeColours(selected []colour.RGB) []colour.RGB {
	seen := make(map[colour.RGB]struct{}, len(selected))
	out := selected[:0]
	for _, c := range selected {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// attribute assigns every sampled pixel to its nearest selected colour and
// accumulates per-colour frequencies and back-mapped coordinates. Selected
// colours that attract no pixels are dropped. The nearest-match metric is
// exact RGB equality first, then minimal squared Euclidean distance in RGB
// space with the lowest palette index winning ties.
func attribute(pixels []opaquePixel, selected []colour.RGB, scale float64, origBounds image.Rectangle, maxSamples int) []palette.Entry {
	entries := make([]palette.Entry, len(selected))
	for i, c := range selected {
		entries[i] = palette.Entry{Color: c, Enabled: true}
	}

	exact := make(map[colour.RGB]int, len(selected))
	for i, c := range selected {
		if _, ok := exact[c]; !ok {
			exact[c] = i
		}
	}

	for _, px := range pixels {
		i, ok := exact[px.rgb]
		if !ok {
			i = nearestColour(px.rgb, selected)
		}
		entries[i].Count++
		if len(entries[i].Samples) < maxSamples {
			x, y := remapCoord(px.x, px.y, scale, origBounds)
			entries[i].Samples = append(entries[i].Samples, palette.Sample{X: x, Y: y})
		}
	}

	matched := entries[:0]
	for _, e := range entries {
		if e.Count > 0 {
			matched = append(matched, e)
		}
	}
	return matched
}

// nearestColour returns the index of the selected colour closest to rgb by
// squared Euclidean distance.
func nearestColour(rgb colour.RGB, selected []colour.RGB) int {
	best := 0
	bestDist := math.MaxInt
	for i, c := range selected {
		if dist := sqDist(rgb, c); dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}
