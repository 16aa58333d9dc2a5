// Package config persists user-adjustable extraction settings between runs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spectral-tools/paleta/internal/quant"
)

// SettingsFilename is the name of the settings file in the user's home
// directory.
const SettingsFilename = ".paleta_settings.json"

// Settings holds everything the tool remembers between runs: the count
// safety thresholds, the max-mode scan heuristics, and the last-used
// extraction parameters.
type Settings struct {
	// MaxWarn is the colour count above which extraction asks for
	// confirmation before proceeding.
	MaxWarn int `json:"max_warn"`

	// MaxError is the colour count above which extraction is refused
	// outright (unless forced).
	MaxError int `json:"max_error"`

	// MaxQuantDim bounds the working copy used for adaptive quantization.
	MaxQuantDim int `json:"max_quant_dim"`

	// MaxSampleDim bounds the downsample used to estimate unique colours
	// before an exhaustive scan.
	MaxSampleDim int `json:"max_sample_dim"`

	// FullScanPixelLimit is the largest opaque-pixel total for which an
	// exhaustive scan walks the full-resolution image.
	FullScanPixelLimit int `json:"full_scan_pixel_limit"`

	// UniqueThreshold and UniqueRatioThreshold decide whether an image
	// looks flat enough (few distinct colours) for a full scan.
	UniqueThreshold      int     `json:"unique_threshold"`
	UniqueRatioThreshold float64 `json:"unique_ratio_threshold"`

	// LastCount, LastAlgorithm and LastSortKey restore the previous
	// session's choices. LastCount is the raw flag value, so it may be
	// "max" as well as a number.
	LastCount     string `json:"last_count,omitempty"`
	LastAlgorithm string `json:"last_algorithm,omitempty"`
	LastSortKey   string `json:"last_sort_key,omitempty"`
}

// Defaults returns the settings used when no file exists or the existing
// file cannot be read.
func Defaults() Settings {
	opts := quant.DefaultOptions()
	lim := quant.DefaultLimits()
	return Settings{
		MaxWarn:              lim.ConfirmThreshold,
		MaxError:             lim.HardLimit,
		MaxQuantDim:          opts.MaxQuantDim,
		MaxSampleDim:         opts.MaxSampleDim,
		FullScanPixelLimit:   opts.FullScanPixelLimit,
		UniqueThreshold:      opts.UniqueThreshold,
		UniqueRatioThreshold: opts.UniqueRatioThreshold,
	}
}

// DefaultPath returns the settings file path in the user's home directory.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, SettingsFilename), nil
}

// Load reads settings from path. A missing or malformed file silently
// yields the defaults: the settings file is a convenience, never a reason
// to refuse to run.
func Load(path string) Settings {
	s := Defaults()

	data, err := os.ReadFile(path) // #nosec G304 - path comes from the user's own home dir or flag
	if err != nil {
		return s
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Defaults()
	}
	s.normalize()
	return s
}

// Save writes settings to path, creating parent directories if needed.
func Save(path string, s Settings) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 - settings are not sensitive
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Reset rewrites the settings file with the canonical defaults.
func Reset(path string) error {
	return Save(path, Defaults())
}

// normalize clamps nonsensical stored values back to their defaults so a
// hand-edited file cannot wedge extraction.
func (s *Settings) normalize() {
	def := Defaults()
	if s.MaxWarn <= 0 {
		s.MaxWarn = def.MaxWarn
	}
	if s.MaxError < s.MaxWarn {
		s.MaxError = def.MaxError
		if s.MaxError < s.MaxWarn {
			s.MaxError = s.MaxWarn
		}
	}
	if s.MaxQuantDim <= 0 {
		s.MaxQuantDim = def.MaxQuantDim
	}
	if s.MaxSampleDim <= 0 {
		s.MaxSampleDim = def.MaxSampleDim
	}
	if s.FullScanPixelLimit <= 0 {
		s.FullScanPixelLimit = def.FullScanPixelLimit
	}
	if s.UniqueThreshold <= 0 {
		s.UniqueThreshold = def.UniqueThreshold
	}
	if s.UniqueRatioThreshold <= 0 {
		s.UniqueRatioThreshold = def.UniqueRatioThreshold
	}
}

// Limits converts the stored thresholds into the quantizer's count policy.
func (s Settings) Limits() quant.Limits {
	return quant.Limits{
		ConfirmThreshold: s.MaxWarn,
		HardLimit:        s.MaxError,
	}
}

// QuantOptions converts the stored heuristics into quantizer options.
// Per-run choices (algorithm, force flags) are left for the caller.
func (s Settings) QuantOptions() quant.Options {
	opts := quant.DefaultOptions()
	opts.Limits = s.Limits()
	opts.MaxQuantDim = s.MaxQuantDim
	opts.MaxSampleDim = s.MaxSampleDim
	opts.FullScanPixelLimit = s.FullScanPixelLimit
	opts.UniqueThreshold = s.UniqueThreshold
	opts.UniqueRatioThreshold = s.UniqueRatioThreshold
	// The exact-scan cap tracks the hard count limit: a max-mode result
	// too large to request explicitly is too large to enumerate.
	opts.MaxUnique = s.MaxError
	return opts
}
