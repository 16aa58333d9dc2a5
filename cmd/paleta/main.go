// Paleta - colour palette extraction and curation
//
// Paleta extracts colour palettes from images, with per-colour pixel
// frequencies and source locations, and exports them as text listings
// or swatch-sheet images.
package main

import (
	"github.com/spectral-tools/paleta/internal/cli"
)

func main() {
	cli.Execute()
}
