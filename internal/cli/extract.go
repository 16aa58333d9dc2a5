package cli

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spectral-tools/paleta/internal/colour"
	"github.com/spectral-tools/paleta/internal/export"
	"github.com/spectral-tools/paleta/internal/fetch"
	img "github.com/spectral-tools/paleta/internal/image"
	"github.com/spectral-tools/paleta/internal/palette"
	"github.com/spectral-tools/paleta/internal/quant"
	"github.com/spectral-tools/paleta/internal/session"
)

// countValue is a pflag.Value accepting either a number or the literal
// "max" (every distinct colour).
type countValue struct {
	max bool
	n   int
}

var _ pflag.Value = (*countValue)(nil)

func (c *countValue) String() string {
	if c.max {
		return "max"
	}
	return strconv.Itoa(c.n)
}

func (c *countValue) Set(s string) error {
	if strings.EqualFold(s, "max") {
		c.max = true
		c.n = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("must be a number or \"max\"")
	}
	c.max = false
	c.n = n
	return nil
}

func (c *countValue) Type() string { return "count" }

// extractOptions holds the extract command's flags.
type extractOptions struct {
	colors        countValue
	algorithm     string
	sortKey       string
	disabledFirst bool
	disable       []int
	format        string
	output        string
	exportImage   string
	markers       bool
	force         bool
	fullScan      bool
	yes           bool
	preview       bool
}

func newExtractCmd(app *App) *cobra.Command {
	opts := &extractOptions{colors: countValue{n: 10}}

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract a colour palette from an image",
		Long: `Extract a colour palette from an image.

With a numeric --colors the image is quantized down to that many
representative colours; with --colors max every distinct colour is
enumerated. Each entry carries its pixel frequency and sample
coordinates in the source image.

Counts above the warning threshold ask for confirmation; counts above
the hard limit are refused unless --force is given. Both thresholds
live in the settings file.

Supported image formats: JPEG, PNG, GIF, WebP

Examples:
  # Extract 10 colours (default)
  paleta extract wallpaper.jpg

  # Every distinct colour, sorted by hue
  paleta extract --colors max --sort hue wallpaper.png

  # 8 colours via k-means, with terminal swatches
  paleta extract -c 8 -a kmeans --preview wallpaper.jpg

  # Skip the two most frequent colours and export a swatch sheet
  paleta extract --disable 0,1 --export-image palette.png wallpaper.jpg

  # JSON listing with per-colour sample coordinates
  paleta extract --format json --markers wallpaper.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, app, opts, args[0])
		},
	}

	cmd.Flags().VarP(&opts.colors, "colors", "c", "number of colours to extract, or \"max\" for every distinct colour")
	cmd.Flags().StringVarP(&opts.algorithm, "algorithm", "a", "", "quantization algorithm (mediancut, kmeans, dominant)")
	cmd.Flags().StringVarP(&opts.sortKey, "sort", "s", "", "sort key (frequency, hue, saturation, value, luminance, hex)")
	cmd.Flags().BoolVar(&opts.disabledFirst, "disabled-first", false, "group disabled colours before enabled ones when sorting")
	cmd.Flags().IntSliceVar(&opts.disable, "disable", nil, "palette indices to disable after extraction")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "hex", "output format (hex, rgb, json)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&opts.exportImage, "export-image", "", "write a swatch-sheet PNG to this path")
	cmd.Flags().BoolVar(&opts.markers, "markers", false, "list a source-image coordinate for each colour")
	cmd.Flags().BoolVar(&opts.force, "force", false, "bypass the colour count limits")
	cmd.Flags().BoolVar(&opts.fullScan, "full-scan", false, "with --colors max, scan the full image regardless of size")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "assume yes for confirmation prompts")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "show colour swatches in the terminal")

	return cmd
}

func runExtract(cmd *cobra.Command, app *App, opts *extractOptions, path string) error {
	if fetch.IsRemote(path) {
		cached, err := fetch.CachedImage(cmd.Context(), path, fetch.Options{})
		if err != nil {
			return err
		}
		app.Logger.Debug("remote image cached", "url", path, "path", cached)
		path = cached
	}
	if err := img.ValidateImagePath(path); err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}
	if opts.algorithm != "" && !quant.IsValidAlgorithm(quant.Algorithm(opts.algorithm)) {
		return fmt.Errorf("unknown algorithm: %s (valid algorithms: %v)", opts.algorithm, quant.ValidAlgorithms())
	}
	if opts.sortKey != "" && !palette.IsValidSortKey(palette.SortKey(opts.sortKey)) {
		return fmt.Errorf("unknown sort key: %s (valid keys: %v)", opts.sortKey, palette.ValidSortKeys())
	}
	if !export.IsValidFormat(export.Format(opts.format)) {
		return fmt.Errorf("unknown format: %s (valid formats: %v)", opts.format, export.ValidFormats())
	}
	if !opts.colors.max && !cmd.Flags().Changed("colors") && app.Settings.LastCount != "" {
		// Restore the previous run's count when the flag is untouched.
		if err := opts.colors.Set(app.Settings.LastCount); err != nil {
			opts.colors = countValue{n: 10}
		}
	}
	if opts.algorithm == "" {
		opts.algorithm = app.Settings.LastAlgorithm
	}
	if opts.sortKey == "" && app.Settings.LastSortKey != "" {
		opts.sortKey = app.Settings.LastSortKey
	}

	sess := session.New(app.Settings, app.Logger)
	if err := sess.LoadImage(path); err != nil {
		return err
	}
	bounds := sess.Image().Bounds()
	app.Logger.Debug("image loaded", "path", path, "width", bounds.Dx(), "height", bounds.Dy())

	req := session.Request{
		Count:         opts.colors.n,
		Max:           opts.colors.max,
		Algorithm:     quant.Algorithm(opts.algorithm),
		Force:         opts.force,
		ForceFullScan: opts.fullScan,
		Confirmed:     opts.yes,
	}

	pal, err := sess.Extract(cmd.Context(), req)
	var confirm *session.ConfirmError
	if errors.As(err, &confirm) {
		ok, perr := promptConfirm(cmd, confirm.Count)
		if perr != nil {
			return perr
		}
		if !ok {
			return fmt.Errorf("extraction of %d colours not confirmed", confirm.Count)
		}
		req.Confirmed = true
		pal, err = sess.Extract(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	for _, i := range opts.disable {
		pal.Toggle(i)
	}
	if opts.sortKey != "" {
		pal.Sort(palette.SortKey(opts.sortKey), opts.disabledFirst)
	}

	if err := writePalette(cmd, opts, pal); err != nil {
		return err
	}
	if opts.markers {
		printMarkers(cmd, pal, bounds)
	}
	if opts.exportImage != "" {
		if err := export.WriteSheet(opts.exportImage, pal); err != nil {
			return err
		}
		app.Logger.Debug("swatch sheet written", "path", opts.exportImage)
	}

	app.Settings.LastCount = opts.colors.String()
	app.Settings.LastAlgorithm = opts.algorithm
	app.Settings.LastSortKey = opts.sortKey
	app.saveSettings()
	return nil
}

// promptConfirm asks the user to confirm a large colour count. Without a
// terminal the answer is no.
func promptConfirm(cmd *cobra.Command, count int) (bool, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "About to extract %d colours. Continue? [y/N] ", count)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func writePalette(cmd *cobra.Command, opts *extractOptions, pal *palette.Palette) error {
	if opts.preview && opts.output == "" && opts.format != string(export.FormatJSON) {
		printPreview(cmd, pal)
		return nil
	}
	if opts.output != "" {
		return export.WriteText(opts.output, pal, export.Format(opts.format))
	}
	out, err := export.Text(pal, export.Format(opts.format))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), out)
	return nil
}

// printPreview renders each enabled colour as a terminal swatch with its
// hex code and pixel frequency. Without a truecolor terminal the swatch
// block is dropped and only the text columns remain.
func printPreview(cmd *cobra.Command, pal *palette.Palette) {
	ansi := colour.SupportsANSIColours()
	total := pal.TotalCount()
	for _, e := range pal.Entries() {
		if !e.Enabled {
			continue
		}
		pct := 0.0
		if total > 0 {
			pct = float64(e.Count) / float64(total) * 100
		}
		label := e.Hex()
		if ansi {
			label = colour.PreviewLine(e.Color, 8)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %6d px (%.1f%%)\n", label, e.Count, pct)
	}
}

// printMarkers lists one source-image coordinate per colour, enabled and
// disabled alike, so every swatch can be traced back to a pixel.
func printMarkers(cmd *cobra.Command, pal *palette.Palette, bounds image.Rectangle) {
	for _, m := range palette.Markers(pal, bounds) {
		state := "enabled"
		if !m.Enabled {
			state = "disabled"
		}
		if len(m.Points) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (no source pixel)\n", m.Color.Hex(), state)
			continue
		}
		p := m.Points[0]
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d,%d\n", m.Color.Hex(), state, p.X, p.Y)
	}
}
