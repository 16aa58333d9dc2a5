// Package export writes palettes out as text listings and swatch-sheet
// images.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/spectral-tools/paleta/internal/palette"
)

// Format selects the textual representation of an exported palette.
type Format string

const (
	FormatHex  Format = "hex"
	FormatRGB  Format = "rgb"
	FormatJSON Format = "json"
)

// ValidFormats returns the supported text formats.
func ValidFormats() []Format {
	return []Format{FormatHex, FormatRGB, FormatJSON}
}

// IsValidFormat reports whether f is a supported text format.
func IsValidFormat(f Format) bool {
	for _, v := range ValidFormats() {
		if f == v {
			return true
		}
	}
	return false
}

// Text renders the enabled entries of p in the requested format,
// preserving the palette's current order. An empty format renders hex.
func Text(p *palette.Palette, f Format) (string, error) {
	switch f {
	case "", FormatHex:
		return strings.Join(p.HexList(true), "\n") + "\n", nil
	case FormatRGB:
		var b strings.Builder
		for _, e := range p.Entries() {
			if !e.Enabled {
				continue
			}
			fmt.Fprintf(&b, "%s\n", e.Color.String())
		}
		return b.String(), nil
	case FormatJSON:
		// JSON keeps disabled entries too; their enabled flag travels
		// with them so the listing can be re-curated elsewhere.
		data, err := p.ToJSON()
		if err != nil {
			return "", fmt.Errorf("failed to encode palette: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unknown format: %s (valid formats: %v)", f, ValidFormats())
	}
}

// WriteText renders p in the requested format and writes it to path.
func WriteText(path string, p *palette.Palette, f Format) error {
	out, err := Text(p, f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(out), 0o644); err != nil { // #nosec G306 - exported palettes are not sensitive
		return fmt.Errorf("failed to write palette: %w", err)
	}
	return nil
}
