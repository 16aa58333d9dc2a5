// Package image provides utilities for loading and normalizing images
// ahead of palette extraction.
package image

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF format
	_ "image/jpeg" // Register JPEG format
	_ "image/png"  // Register PNG format
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "golang.org/x/image/webp" // Register WebP format
)

// ErrLoad indicates that an image file could not be read or decoded.
// All load failures wrap this sentinel.
var ErrLoad = errors.New("image load failed")

// Load loads an image from a file path and normalizes it to a 4-channel
// NRGBA buffer. Supported formats: JPEG, PNG, GIF, WebP.
// The source file is never modified.
func Load(path string) (*image.NRGBA, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: image path cannot be empty", ErrLoad)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: file not found: %s", ErrLoad, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %v", ErrLoad, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: path is a directory, not a file: %s", ErrLoad, path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrLoad, path, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s (format: %s): %v", ErrLoad, path, format, err)
	}

	return Normalize(img), nil
}

// Normalize converts any decoded image into an NRGBA buffer anchored at the
// origin. Returns a fresh buffer even when the input is already NRGBA so
// callers can treat the result as exclusively owned.
func Normalize(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return dst
}

// OpaquePixelCount returns the number of pixels whose alpha is not exactly
// zero. Fully transparent pixels are invisible to all downstream counting
// and sampling.
func OpaquePixelCount(img *image.NRGBA) int {
	bounds := img.Bounds()
	count := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] != 0 {
				count++
			}
		}
	}
	return count
}

// ValidateImagePath checks that the given path exists and points to a
// decodable image file.
func ValidateImagePath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: image path cannot be empty", ErrLoad)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: file not found: %s", ErrLoad, path)
		}
		return fmt.Errorf("%w: stat %s: %v", ErrLoad, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: path is a directory, not a file: %s", ErrLoad, path)
	}

	file, err := os.Open(path) // #nosec G304 - User-specified image path, intended to be read
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrLoad, path, err)
	}
	defer file.Close()

	if _, _, err := image.DecodeConfig(file); err != nil {
		return fmt.Errorf("%w: unsupported or invalid image format: %v", ErrLoad, err)
	}
	return nil
}

// SupportedImageExtensions returns a list of supported image file extensions.
func SupportedImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
}

// IsImageFile checks if a file has a supported image extension.
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(SupportedImageExtensions(), ext)
}
