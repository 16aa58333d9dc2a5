package quant

import (
	"fmt"
	"image"
	"image/color"

	"github.com/cenkalti/dominantcolor"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/spectral-tools/paleta/internal/colour"
)

// Algorithm represents the adaptive palette-selection algorithm type.
type Algorithm string

const (
	// AlgorithmMedianCut uses median-cut quantization. This is the default.
	AlgorithmMedianCut Algorithm = "mediancut"

	// AlgorithmKMeans uses k-means clustering in RGB space.
	AlgorithmKMeans Algorithm = "kmeans"

	// AlgorithmDominant selects the most dominant colours by weighted
	// candidate sampling.
	AlgorithmDominant Algorithm = "dominant"
)

// ValidAlgorithms returns a list of valid algorithm names.
func ValidAlgorithms() []Algorithm {
	return []Algorithm{AlgorithmMedianCut, AlgorithmKMeans, AlgorithmDominant}
}

// IsValidAlgorithm checks if the given algorithm name is valid.
func IsValidAlgorithm(alg Algorithm) bool {
	for _, valid := range ValidAlgorithms() {
		if alg == valid {
			return true
		}
	}
	return false
}

// selectColours runs the chosen algorithm over the opaque sample pixels and
// returns at most n representative colours. An empty algorithm falls back
// to median cut.
func selectColours(alg Algorithm, pixels []opaquePixel, n int) ([]colour.RGB, error) {
	switch alg {
	case "", AlgorithmMedianCut:
		return medianCutColours(pixels, n), nil
	case AlgorithmKMeans:
		return kmeansColours(pixels, n)
	case AlgorithmDominant:
		return dominantColours(pixels, n), nil
	default:
		return nil, fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", alg, ValidAlgorithms())
	}
}

// stripImage lays the opaque pixels out as a 1-pixel-tall image so that
// image-consuming quantizers never see transparent pixels.
func stripImage(pixels []opaquePixel) *image.NRGBA {
	strip := image.NewNRGBA(image.Rect(0, 0, len(pixels), 1))
	for i, px := range pixels {
		off := strip.PixOffset(i, 0)
		strip.Pix[off] = px.rgb.R
		strip.Pix[off+1] = px.rgb.G
		strip.Pix[off+2] = px.rgb.B
		strip.Pix[off+3] = 255
	}
	return strip
}

// medianCutColours selects n colours with median-cut quantization, averaging
// each bucket.
func medianCutColours(pixels []opaquePixel, n int) []colour.RGB {
	q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
	pal := q.Quantize(make(color.Palette, 0, n), stripImage(pixels))

	out := make([]colour.RGB, 0, len(pal))
	for _, c := range pal {
		out = append(out, colour.ToRGB(c))
	}
	return out
}

// maxKMeansSamples bounds the clustering dataset; beyond it the pixels are
// strided down to keep partitioning tractable.
const maxKMeansSamples = 12000

// kmeansColours selects n colours by k-means clustering over the pixel
// distribution.
func kmeansColours(pixels []opaquePixel, n int) ([]colour.RGB, error) {
	step := 1
	if len(pixels) > maxKMeansSamples {
		step = len(pixels)/maxKMeansSamples + 1
	}

	dataset := make(clusters.Observations, 0, min(len(pixels), maxKMeansSamples))
	for i := 0; i < len(pixels); i += step {
		rgb := pixels[i].rgb
		dataset = append(dataset, clusters.Coordinates{
			float64(rgb.R) / 255.0,
			float64(rgb.G) / 255.0,
			float64(rgb.B) / 255.0,
		})
	}
	if len(dataset) < n {
		// Striding can drop below n observations on tiny inputs; refill
		// with every pixel.
		dataset = dataset[:0]
		for _, px := range pixels {
			dataset = append(dataset, clusters.Coordinates{
				float64(px.rgb.R) / 255.0,
				float64(px.rgb.G) / 255.0,
				float64(px.rgb.B) / 255.0,
			})
		}
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, n)
	if err != nil {
		return nil, fmt.Errorf("kmeans partition: %w", err)
	}

	out := make([]colour.RGB, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 {
			continue
		}
		out = append(out, colour.RGB{
			R: clampChannel(c.Center[0] * 255.0),
			G: clampChannel(c.Center[1] * 255.0),
			B: clampChannel(c.Center[2] * 255.0),
		})
	}
	return out, nil
}

// dominantColours selects up to n colours by dominant-colour candidate
// weighting.
func dominantColours(pixels []opaquePixel, n int) []colour.RGB {
	candidates := dominantcolor.FindWeight(stripImage(pixels), n)

	out := make([]colour.RGB, 0, len(candidates))
	for _, c := range candidates {
		if len(out) >= n {
			break
		}
		out = append(out, colour.RGB{R: c.RGBA.R, G: c.RGBA.G, B: c.RGBA.B})
	}
	return out
}

func clampChannel(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
