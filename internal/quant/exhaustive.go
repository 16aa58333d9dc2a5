package quant

import (
	"fmt"
	"image"
	"sort"

	pimage "github.com/spectral-tools/paleta/internal/image"
	"github.com/spectral-tools/paleta/internal/palette"
)

// Exhaustive scans every opaque pixel and groups by exact RGB triple.
// Frequencies are exact counts; sample locations list every coordinate with
// that colour, capped per entry. Entries come back in descending-frequency
// order, ties by first appearance. An image with zero opaque pixels fails
// with ErrEmptyImage.
func Exhaustive(img *image.NRGBA, opts Options) (*palette.Palette, error) {
	return exhaustiveScan(img, 1.0, img.Bounds(), opts)
}

// UniqueStats describes the sampled unique-colour estimate for an image.
type UniqueStats struct {
	// SampleUnique is the distinct-colour count observed in the sample.
	SampleUnique int
	// SamplePixels is the number of opaque pixels in the sample.
	SamplePixels int
	// TotalOpaque is the opaque-pixel count of the full image.
	TotalOpaque int
}

// EstimatedUnique extrapolates the sampled unique count to the full image.
func (s UniqueStats) EstimatedUnique() int {
	if s.SamplePixels == 0 {
		return 0
	}
	est := int(float64(s.SampleUnique) * float64(s.TotalOpaque) / float64(s.SamplePixels))
	return min(max(est, s.SampleUnique), s.TotalOpaque)
}

// EstimateUniqueStats measures unique-colour statistics from a bounded
// downsample so callers can apply count policy before committing to a scan.
func EstimateUniqueStats(img *image.NRGBA, maxSampleDim int) UniqueStats {
	total := pimage.OpaquePixelCount(img)
	if total == 0 {
		return UniqueStats{}
	}

	sample, _ := pimage.Resize(img, maxSampleDim)
	seen := make(map[[3]uint8]struct{})
	pixels := 0
	bounds := sample.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			off := sample.PixOffset(x, y)
			if sample.Pix[off+3] == 0 {
				continue
			}
			pixels++
			seen[[3]uint8{sample.Pix[off], sample.Pix[off+1], sample.Pix[off+2]}] = struct{}{}
		}
	}

	return UniqueStats{SampleUnique: len(seen), SamplePixels: pixels, TotalOpaque: total}
}

// ExhaustiveAuto enumerates unique colours with the scan-cost heuristics:
// when the sampled estimate is small and the image is within the full-scan
// pixel budget (or ForceFullScan is set), it computes exact counts at full
// resolution; otherwise it falls back to the downsample, which keeps
// frequencies approximate but representative. A full scan exceeding
// MaxUnique fails with ErrExcessiveCount.
func ExhaustiveAuto(img *image.NRGBA, opts Options) (*palette.Palette, error) {
	total := pimage.OpaquePixelCount(img)
	if total == 0 {
		return nil, ErrEmptyImage
	}

	maxSampleDim := opts.MaxSampleDim
	if maxSampleDim <= 0 {
		maxSampleDim = DefaultOptions().MaxSampleDim
	}
	stats := EstimateUniqueStats(img, maxSampleDim)

	fullScan := opts.ForceFullScan
	if !fullScan {
		ratio := 0.0
		if stats.SamplePixels > 0 {
			ratio = float64(stats.SampleUnique) / float64(stats.SamplePixels)
		}
		uniqueThreshold := opts.UniqueThreshold
		if uniqueThreshold <= 0 {
			uniqueThreshold = DefaultOptions().UniqueThreshold
		}
		ratioThreshold := opts.UniqueRatioThreshold
		if ratioThreshold <= 0 {
			ratioThreshold = DefaultOptions().UniqueRatioThreshold
		}
		scanLimit := opts.FullScanPixelLimit
		if scanLimit <= 0 {
			scanLimit = DefaultOptions().FullScanPixelLimit
		}
		fullScan = (stats.SampleUnique <= uniqueThreshold || ratio <= ratioThreshold) &&
			total <= scanLimit
	}

	if fullScan {
		p, err := Exhaustive(img, opts)
		if err != nil {
			return nil, err
		}
		if opts.MaxUnique > 0 && p.Len() > opts.MaxUnique {
			return nil, fmt.Errorf("%w: image has %d unique colours, limit is %d",
				ErrExcessiveCount, p.Len(), opts.MaxUnique)
		}
		return p, nil
	}

	sample, scale := pimage.Resize(img, maxSampleDim)
	return exhaustiveScan(sample, scale, img.Bounds(), opts)
}

// exhaustiveScan groups the opaque pixels of a sampling grid by exact RGB.
// Coordinates are mapped back through scale into origBounds so sample
// provenance always refers to the original image.
func exhaustiveScan(img *image.NRGBA, scale float64, origBounds image.Rectangle, opts Options) (*palette.Palette, error) {
	pixels := collectOpaque(img)
	if len(pixels) == 0 {
		return nil, ErrEmptyImage
	}

	maxSamples := opts.sampleCap()
	index := make(map[[3]uint8]int)
	entries := make([]palette.Entry, 0, 64)
	for _, px := range pixels {
		key := [3]uint8{px.rgb.R, px.rgb.G, px.rgb.B}
		i, ok := index[key]
		if !ok {
			i = len(entries)
			index[key] = i
			entries = append(entries, palette.Entry{Color: px.rgb, Enabled: true})
		}
		entries[i].Count++
		if len(entries[i].Samples) < maxSamples {
			x, y := remapCoord(px.x, px.y, scale, origBounds)
			entries[i].Samples = append(entries[i].Samples, palette.Sample{X: x, Y: y})
		}
	}

	sortByCountDesc(entries)
	return palette.New(entries), nil
}

// sortByCountDesc orders entries by descending frequency, preserving the
// incoming order between equal counts.
func sortByCountDesc(entries []palette.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
}
