package image

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Resize downscales img so its longest edge equals maxDim, preserving the
// aspect ratio, and returns the result together with the applied scale
// factor. Images already within maxDim are returned unchanged with scale 1.
// The resized copy is only ever used as a sampling grid; the original image
// is left untouched.
func Resize(img *image.NRGBA, maxDim int) (*image.NRGBA, float64) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	longest := max(w, h)
	if maxDim <= 0 || longest <= maxDim {
		return img, 1.0
	}

	scale := float64(maxDim) / float64(longest)
	nw := max(1, int(float64(w)*scale))
	nh := max(1, int(float64(h)*scale))

	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst, scale
}
