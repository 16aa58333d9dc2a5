package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/spectral-tools/paleta/internal/colour"
	"github.com/spectral-tools/paleta/internal/palette"
)

// Swatch sheet geometry. Each enabled colour gets one cell in a
// fixed-width grid; the swatch block sits inset within its cell and the
// hex label is drawn over the block's top-left corner.
const (
	sheetColumns = 6
	cellWidth    = 200
	cellHeight   = 120
	blockWidth   = 180
	blockHeight  = 90
	blockInset   = 10
	labelInset   = 6
)

// ErrNoEnabledColours is returned when an image export has nothing to draw.
var ErrNoEnabledColours = fmt.Errorf("no enabled colours to export")

// Sheet renders the enabled entries of p as a swatch-sheet image in the
// palette's current order.
func Sheet(p *palette.Palette) (*image.NRGBA, error) {
	var enabled []palette.Entry
	for _, e := range p.Entries() {
		if e.Enabled {
			enabled = append(enabled, e)
		}
	}
	if len(enabled) == 0 {
		return nil, ErrNoEnabledColours
	}

	cols := sheetColumns
	if len(enabled) < cols {
		cols = len(enabled)
	}
	rows := (len(enabled) + cols - 1) / cols

	img := image.NewNRGBA(image.Rect(0, 0, cols*cellWidth, rows*cellHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, e := range enabled {
		x0 := (i%cols)*cellWidth + blockInset
		y0 := (i/cols)*cellHeight + blockInset

		block := image.Rect(x0, y0, x0+blockWidth, y0+blockHeight)
		draw.Draw(img, block, image.NewUniform(colour.ToColor(e.Color)), image.Point{}, draw.Src)

		drawLabel(img, x0+labelInset, y0+labelInset, e.Hex(), labelColour(e))
	}
	return img, nil
}

// WriteSheet renders the swatch sheet and writes it to path as PNG.
func WriteSheet(path string, p *palette.Palette) error {
	img, err := Sheet(p)
	if err != nil {
		return err
	}

	f, err := os.Create(path) // #nosec G304 - output path comes from the user
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// labelColour picks black text over light swatches and white over dark
// ones so the hex label stays readable.
func labelColour(e palette.Entry) color.Color {
	if e.Color.Luminance() > 0.5 {
		return color.Black
	}
	return color.White
}

func drawLabel(img *image.NRGBA, x, y int, text string, c color.Color) {
	face := basicfont.Face7x13
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		// Dot is the baseline origin; offset by the ascent so the label's
		// top-left lands at (x, y).
		Dot: fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}
