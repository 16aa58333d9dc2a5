// Package quant turns a normalized image into palette entries carrying
// frequency statistics and sample provenance, either by exhaustive
// unique-colour enumeration or by bounded adaptive quantization.
package quant

import (
	"errors"
	"fmt"
	"image"

	"github.com/spectral-tools/paleta/internal/colour"
)

var (
	// ErrInvalidCount indicates a non-positive requested colour count.
	ErrInvalidCount = errors.New("invalid colour count")

	// ErrExcessiveCount indicates a request beyond the hard palette-size
	// limit without an explicit override.
	ErrExcessiveCount = errors.New("too many colours")

	// ErrEmptyImage indicates an image with zero opaque pixels.
	ErrEmptyImage = errors.New("image has no opaque pixels")
)

// Decision is the three-way outcome of validating a requested colour count
// against the configured limits. It is a policy checkpoint for the caller,
// not an error: the quantizer itself never blocks on confirmation.
type Decision int

const (
	// DecisionOK allows extraction to proceed.
	DecisionOK Decision = iota
	// DecisionNeedsConfirm requires the caller to obtain acknowledgment
	// before proceeding.
	DecisionNeedsConfirm
	// DecisionRejected refuses the request unless explicitly overridden.
	DecisionRejected
)

// String returns a short label for the decision.
func (d Decision) String() string {
	switch d {
	case DecisionOK:
		return "ok"
	case DecisionNeedsConfirm:
		return "needs-confirm"
	case DecisionRejected:
		return "rejected"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// Limits carries the colour-count policy thresholds. They are always passed
// explicitly; the quantizer never reads global state.
type Limits struct {
	// ConfirmThreshold is the largest count that proceeds without
	// confirmation. Counts above it and up to HardLimit need caller
	// acknowledgment.
	ConfirmThreshold int
	// HardLimit is the largest count accepted at all without an explicit
	// override.
	HardLimit int
}

// DefaultLimits returns the standard thresholds: confirmation above 50,
// rejection above 75.
func DefaultLimits() Limits {
	return Limits{ConfirmThreshold: 50, HardLimit: 75}
}

// CheckCount validates a requested colour count. Non-positive counts fail
// with ErrInvalidCount; otherwise the returned decision tells the caller
// whether to proceed, confirm first, or reject.
func CheckCount(n int, lim Limits) (Decision, error) {
	if n <= 0 {
		return DecisionRejected, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	if n > lim.HardLimit {
		return DecisionRejected, nil
	}
	if n > lim.ConfirmThreshold {
		return DecisionNeedsConfirm, nil
	}
	return DecisionOK, nil
}

// Options configures extraction. Zero values fall back to the defaults at
// the point of use, so a zero Options is usable in tests.
type Options struct {
	// Algorithm selects the adaptive palette-selection strategy.
	Algorithm Algorithm
	// Limits is the colour-count policy applied by Adaptive.
	Limits Limits
	// Force overrides the hard count limit.
	Force bool

	// MaxQuantDim bounds the longest sampling-grid edge for adaptive
	// quantization.
	MaxQuantDim int
	// MaxSampleDim bounds the downsample used for unique-colour
	// estimation in ExhaustiveAuto.
	MaxSampleDim int
	// FullScanPixelLimit is the largest opaque-pixel count for which
	// ExhaustiveAuto performs an exact full-resolution scan.
	FullScanPixelLimit int
	// UniqueThreshold and UniqueRatioThreshold decide when the sampled
	// unique-colour estimate is small enough to justify a full scan.
	UniqueThreshold      int
	UniqueRatioThreshold float64
	// ForceFullScan makes ExhaustiveAuto compute exact counts even when
	// the heuristics would approximate.
	ForceFullScan bool
	// MaxUnique caps the exact unique-colour count in ExhaustiveAuto
	// full scans; 0 means unlimited.
	MaxUnique int

	// MaxSamplesPerEntry caps the stored coordinates per palette entry.
	// Frequencies always reflect the true counts regardless of the cap.
	MaxSamplesPerEntry int
}

// DefaultOptions returns the standard extraction configuration.
func DefaultOptions() Options {
	return Options{
		Algorithm:            AlgorithmMedianCut,
		Limits:               DefaultLimits(),
		MaxQuantDim:          800,
		MaxSampleDim:         1200,
		FullScanPixelLimit:   6_000_000,
		UniqueThreshold:      2048,
		UniqueRatioThreshold: 0.05,
		MaxSamplesPerEntry:   64,
	}
}

// sampleCap returns the per-entry coordinate cap in effect.
func (o Options) sampleCap() int {
	if o.MaxSamplesPerEntry > 0 {
		return o.MaxSamplesPerEntry
	}
	return DefaultOptions().MaxSamplesPerEntry
}

// opaquePixel is a single non-transparent pixel observed while scanning a
// sampling grid.
type opaquePixel struct {
	rgb  colour.RGB
	x, y int
}

// collectOpaque gathers every pixel with non-zero alpha, in row-major order.
func collectOpaque(img *image.NRGBA) []opaquePixel {
	bounds := img.Bounds()
	pixels := make([]opaquePixel, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			off := img.PixOffset(x, y)
			if img.Pix[off+3] == 0 {
				continue
			}
			pixels = append(pixels, opaquePixel{
				rgb: colour.RGB{R: img.Pix[off], G: img.Pix[off+1], B: img.Pix[off+2]},
				x:   x,
				y:   y,
			})
		}
	}
	return pixels
}

// remapCoord converts a sampling-grid coordinate back to original-image
// space, clamped into bounds.
func remapCoord(x, y int, scale float64, bounds image.Rectangle) (int, int) {
	if scale != 1.0 && scale > 0 {
		x = int(float64(x) / scale)
		y = int(float64(y) / scale)
	}
	x = min(max(x, bounds.Min.X), bounds.Max.X-1)
	y = min(max(y, bounds.Min.Y), bounds.Max.Y-1)
	return x, y
}
