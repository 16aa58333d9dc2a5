package cli

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spectral-tools/paleta/internal/config"
)

func TestCountValue(t *testing.T) {
	tests := []struct {
		in      string
		wantMax bool
		wantN   int
		wantErr bool
	}{
		{in: "10", wantN: 10},
		{in: "0", wantN: 0},
		{in: "max", wantMax: true},
		{in: "MAX", wantMax: true},
		{in: "ten", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var c countValue
			err := c.Set(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Set(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Set(%q) unexpected error: %v", tt.in, err)
			}
			if c.max != tt.wantMax || c.n != tt.wantN {
				t.Errorf("Set(%q) = {max: %v, n: %d}, want {max: %v, n: %d}",
					tt.in, c.max, c.n, tt.wantMax, tt.wantN)
			}
		})
	}
}

func TestCountValueString(t *testing.T) {
	c := countValue{n: 12}
	if c.String() != "12" {
		t.Errorf("String() = %q, want 12", c.String())
	}
	c = countValue{max: true}
	if c.String() != "max" {
		t.Errorf("String() = %q, want max", c.String())
	}
}

func TestApplySetting(t *testing.T) {
	s := config.Defaults()

	if err := applySetting(&s, "max-warn", "20"); err != nil {
		t.Fatalf("applySetting(max-warn) unexpected error: %v", err)
	}
	if s.MaxWarn != 20 {
		t.Errorf("MaxWarn = %d, want 20", s.MaxWarn)
	}

	if err := applySetting(&s, "max-error", "10"); err == nil {
		t.Error("applySetting(max-error below max-warn) expected error")
	}
	if err := applySetting(&s, "max-error", "30"); err != nil {
		t.Errorf("applySetting(max-error) unexpected error: %v", err)
	}

	if err := applySetting(&s, "unique-ratio-threshold", "0.1"); err != nil {
		t.Errorf("applySetting(unique-ratio-threshold) unexpected error: %v", err)
	}
	if err := applySetting(&s, "unique-ratio-threshold", "2"); err == nil {
		t.Error("applySetting(ratio > 1) expected error")
	}

	if err := applySetting(&s, "colour-of-the-day", "teal"); err == nil {
		t.Error("applySetting(unknown key) expected error")
	}
}

// writeTestPNG writes a 2x1 red/blue PNG and returns its path.
func writeTestPNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})
	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestExtractCommand(t *testing.T) {
	imgPath := writeTestPNG(t)
	settings := filepath.Join(t.TempDir(), "settings.json")

	out, _, err := runCommand(t, "extract", imgPath, "--settings", settings, "-c", "4")
	if err != nil {
		t.Fatalf("extract unexpected error: %v", err)
	}
	if !strings.Contains(out, "#ff0000") || !strings.Contains(out, "#0000ff") {
		t.Errorf("extract output = %q, want both hex colours", out)
	}

	// The run persists its parameters for next time.
	saved := config.Load(settings)
	if saved.LastCount != "4" {
		t.Errorf("LastCount = %q, want 4", saved.LastCount)
	}
}

func TestExtractCommandMax(t *testing.T) {
	imgPath := writeTestPNG(t)
	settings := filepath.Join(t.TempDir(), "settings.json")

	out, _, err := runCommand(t, "extract", imgPath, "--settings", settings, "--colors", "max", "--format", "rgb")
	if err != nil {
		t.Fatalf("extract --colors max unexpected error: %v", err)
	}
	if !strings.Contains(out, "rgb(255, 0, 0)") {
		t.Errorf("extract output = %q, want rgb listing", out)
	}
}

func TestExtractCommandMarkers(t *testing.T) {
	imgPath := writeTestPNG(t)
	settings := filepath.Join(t.TempDir(), "settings.json")

	out, _, err := runCommand(t, "extract", imgPath, "--settings", settings, "--markers")
	if err != nil {
		t.Fatalf("extract --markers unexpected error: %v", err)
	}
	if !strings.Contains(out, "#ff0000  enabled  0,0") {
		t.Errorf("extract output = %q, want marker line for red at 0,0", out)
	}
}

func TestExtractCommandDisable(t *testing.T) {
	imgPath := writeTestPNG(t)
	settings := filepath.Join(t.TempDir(), "settings.json")

	out, _, err := runCommand(t, "extract", imgPath, "--settings", settings, "--disable", "0")
	if err != nil {
		t.Fatalf("extract --disable unexpected error: %v", err)
	}
	if strings.Contains(out, "#ff0000") {
		t.Errorf("extract output = %q, disabled colour should be omitted", out)
	}
	if !strings.Contains(out, "#0000ff") {
		t.Errorf("extract output = %q, enabled colour missing", out)
	}
}

func TestExtractCommandExportImage(t *testing.T) {
	imgPath := writeTestPNG(t)
	dir := t.TempDir()
	settings := filepath.Join(dir, "settings.json")
	sheet := filepath.Join(dir, "sheet.png")

	if _, _, err := runCommand(t, "extract", imgPath, "--settings", settings, "--export-image", sheet); err != nil {
		t.Fatalf("extract --export-image unexpected error: %v", err)
	}
	f, err := os.Open(sheet)
	if err != nil {
		t.Fatalf("swatch sheet not written: %v", err)
	}
	defer f.Close()
	if _, err := png.Decode(f); err != nil {
		t.Errorf("swatch sheet is not a valid PNG: %v", err)
	}
}

func TestExtractCommandPreview(t *testing.T) {
	imgPath := writeTestPNG(t)
	settings := filepath.Join(t.TempDir(), "settings.json")

	// Test output is not a terminal, so the preview degrades to plain
	// text with frequency columns.
	out, _, err := runCommand(t, "extract", imgPath, "--settings", settings, "--preview")
	if err != nil {
		t.Fatalf("extract --preview unexpected error: %v", err)
	}
	if !strings.Contains(out, "#ff0000") || !strings.Contains(out, "px") {
		t.Errorf("preview output = %q, want hex codes with pixel counts", out)
	}
}

func TestExtractCommandBadFlagValues(t *testing.T) {
	imgPath := writeTestPNG(t)
	settings := filepath.Join(t.TempDir(), "settings.json")

	tests := []struct {
		name string
		args []string
	}{
		{name: "bad algorithm", args: []string{"-a", "octree"}},
		{name: "bad sort key", args: []string{"-s", "alphabetical"}},
		{name: "bad format", args: []string{"-f", "yaml"}},
		{name: "bad count", args: []string{"-c", "ten"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"extract", imgPath, "--settings", settings}, tt.args...)
			if _, _, err := runCommand(t, args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSettingsCommands(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "settings.json")

	if _, _, err := runCommand(t, "settings", "set", "max-warn", "25", "--settings", settings); err != nil {
		t.Fatalf("settings set unexpected error: %v", err)
	}
	if got := config.Load(settings); got.MaxWarn != 25 {
		t.Errorf("saved MaxWarn = %d, want 25", got.MaxWarn)
	}

	out, _, err := runCommand(t, "settings", "show", "--settings", settings)
	if err != nil {
		t.Fatalf("settings show unexpected error: %v", err)
	}
	if !strings.Contains(out, `"max_warn": 25`) {
		t.Errorf("settings show = %q, want stored max_warn", out)
	}

	if _, _, err := runCommand(t, "settings", "reset", "--settings", settings); err != nil {
		t.Fatalf("settings reset unexpected error: %v", err)
	}
	if got := config.Load(settings); got != config.Defaults() {
		t.Errorf("settings after reset = %+v, want defaults", got)
	}
}

func TestVersionCommand(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "settings.json")
	out, _, err := runCommand(t, "version", "--settings", settings)
	if err != nil {
		t.Fatalf("version unexpected error: %v", err)
	}
	if !strings.Contains(out, "paleta version") {
		t.Errorf("version output = %q", out)
	}
}
