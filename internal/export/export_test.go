package export

import (
	"encoding/json"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spectral-tools/paleta/internal/colour"
	"github.com/spectral-tools/paleta/internal/palette"
)

func testPalette() *palette.Palette {
	return palette.New([]palette.Entry{
		{Color: colour.RGB{R: 255}, Count: 10, Enabled: true},
		{Color: colour.RGB{G: 255}, Count: 5, Enabled: false},
		{Color: colour.RGB{B: 255}, Count: 3, Enabled: true},
	})
}

func TestTextHex(t *testing.T) {
	out, err := Text(testPalette(), FormatHex)
	if err != nil {
		t.Fatalf("Text() unexpected error: %v", err)
	}
	if out != "#ff0000\n#0000ff\n" {
		t.Errorf("Text(hex) = %q, want enabled entries only in palette order", out)
	}
}

func TestTextDefaultsToHex(t *testing.T) {
	a, err := Text(testPalette(), "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Text(testPalette(), FormatHex)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("Text(\"\") = %q, want same as hex format %q", a, b)
	}
}

func TestTextRGB(t *testing.T) {
	out, err := Text(testPalette(), FormatRGB)
	if err != nil {
		t.Fatalf("Text() unexpected error: %v", err)
	}
	want := "rgb(255, 0, 0)\nrgb(0, 0, 255)\n"
	if out != want {
		t.Errorf("Text(rgb) = %q, want %q", out, want)
	}
}

func TestTextJSON(t *testing.T) {
	out, err := Text(testPalette(), FormatJSON)
	if err != nil {
		t.Fatalf("Text() unexpected error: %v", err)
	}

	var doc struct {
		Count  int `json:"count"`
		Colors []struct {
			Hex     string `json:"hex"`
			Enabled bool   `json:"enabled"`
		} `json:"colors"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("Text(json) produced invalid JSON: %v", err)
	}
	if doc.Count != 3 {
		t.Errorf("json count = %d, want 3 (disabled entries included)", doc.Count)
	}
	if doc.Colors[1].Hex != "#00ff00" || doc.Colors[1].Enabled {
		t.Errorf("json entry 1 = %+v, want disabled #00ff00", doc.Colors[1])
	}
}

func TestTextUnknownFormat(t *testing.T) {
	if _, err := Text(testPalette(), "yaml"); err == nil {
		t.Error("Text(yaml) expected error")
	}
}

func TestWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.txt")
	if err := WriteText(path, testPalette(), FormatHex); err != nil {
		t.Fatalf("WriteText() unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#ff0000") {
		t.Errorf("written file = %q, want hex listing", data)
	}
}

func TestSheetGeometry(t *testing.T) {
	// Two enabled colours fit a single 2-column row.
	img, err := Sheet(testPalette())
	if err != nil {
		t.Fatalf("Sheet() unexpected error: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 2*cellWidth || b.Dy() != cellHeight {
		t.Errorf("Sheet() bounds = %v, want %dx%d", b, 2*cellWidth, cellHeight)
	}

	// Centre of the first swatch block is solid red; the disabled green
	// entry must not appear anywhere, so the second block is blue.
	r, g, bl, _ := img.At(blockInset+blockWidth/2, blockInset+blockHeight/2).RGBA()
	if r>>8 != 255 || g>>8 != 0 || bl>>8 != 0 {
		t.Errorf("first swatch = %d,%d,%d, want red", r>>8, g>>8, bl>>8)
	}
	r, g, bl, _ = img.At(cellWidth+blockInset+blockWidth/2, blockInset+blockHeight/2).RGBA()
	if r>>8 != 0 || g>>8 != 0 || bl>>8 != 255 {
		t.Errorf("second swatch = %d,%d,%d, want blue (disabled entry skipped)", r>>8, g>>8, bl>>8)
	}

	// Cell margins stay white.
	r, g, bl, _ = img.At(cellWidth-1, cellHeight-1).RGBA()
	if r>>8 != 255 || g>>8 != 255 || bl>>8 != 255 {
		t.Errorf("margin = %d,%d,%d, want white background", r>>8, g>>8, bl>>8)
	}
}

func TestSheetWraps(t *testing.T) {
	entries := make([]palette.Entry, 8)
	for i := range entries {
		entries[i] = palette.Entry{Color: colour.RGB{R: uint8(i * 30)}, Count: 1, Enabled: true}
	}
	img, err := Sheet(palette.New(entries))
	if err != nil {
		t.Fatalf("Sheet() unexpected error: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != sheetColumns*cellWidth || b.Dy() != 2*cellHeight {
		t.Errorf("Sheet() bounds = %v, want full-width two-row grid", b)
	}
}

func TestSheetNoEnabled(t *testing.T) {
	p := palette.New([]palette.Entry{{Color: colour.RGB{R: 1}, Count: 1, Enabled: false}})
	if _, err := Sheet(p); !errors.Is(err, ErrNoEnabledColours) {
		t.Errorf("Sheet() error = %v, want ErrNoEnabledColours", err)
	}
}

func TestWriteSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "palette.png")
	if err := WriteSheet(path, testPalette()); err != nil {
		t.Fatalf("WriteSheet() unexpected error: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("WriteSheet() produced undecodable PNG: %v", err)
	}
}

func TestLabelColour(t *testing.T) {
	light := palette.Entry{Color: colour.RGB{R: 255, G: 255, B: 255}}
	dark := palette.Entry{Color: colour.RGB{}}
	if labelColour(light) != color.Black {
		t.Error("labelColour(white) should be black")
	}
	if labelColour(dark) != color.White {
		t.Error("labelColour(black) should be white")
	}
}
