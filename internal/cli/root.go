// Package cli provides the command-line interface for Paleta.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/spectral-tools/paleta/internal/config"
	"github.com/spectral-tools/paleta/internal/version"
)

// Environment variables recognised at startup. PALETA_DEBUG forces debug
// logging regardless of flags and additionally mirrors it to
// ~/.paleta_debug.log; PALETA_DEBUG_RESET truncates that log first.
const (
	envDebug      = "PALETA_DEBUG"
	envDebugReset = "PALETA_DEBUG_RESET"

	debugLogFilename = ".paleta_debug.log"
)

// App carries the state shared by every command: the resolved settings,
// where they came from, and the logger.
type App struct {
	Logger       hclog.Logger
	Settings     config.Settings
	SettingsPath string

	verbose bool
	quiet   bool
	path    string
}

// NewRootCmd builds the full command tree. Each call returns an
// independent tree, which keeps tests isolated.
func NewRootCmd() *cobra.Command {
	app := &App{}

	rootCmd := &cobra.Command{
		Use:   "paleta",
		Short: "Extract and curate colour palettes from images",
		Long: `Paleta extracts colour palettes from images, with per-colour pixel
frequencies and source locations.

Pick a fixed number of representative colours with an adaptive quantizer,
or enumerate every distinct colour with --colors max. Sort the result by
frequency, hue, saturation, value, luminance or hex, and export it as a
text listing or a swatch-sheet image.`,
		Version:           version.Short(),
		SilenceUsage:      true,
		PersistentPreRunE: app.setup,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&app.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&app.path, "settings", "", "settings file (default: ~/"+config.SettingsFilename+")")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newExtractCmd(app))
	rootCmd.AddCommand(newSettingsCmd(app))

	return rootCmd
}

// Execute runs the CLI. Called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup resolves the settings path, loads settings and configures the
// logger. Runs before every command.
func (a *App) setup(cmd *cobra.Command, args []string) error {
	level := hclog.Warn
	if a.verbose {
		level = hclog.Debug
	}
	if a.quiet {
		level = hclog.Error
	}

	var out io.Writer = cmd.ErrOrStderr()
	if os.Getenv(envDebug) != "" {
		level = hclog.Debug
		if f := openDebugLog(); f != nil {
			// Kept open for the life of the process.
			out = io.MultiWriter(out, f)
		}
	}

	a.Logger = hclog.New(&hclog.LoggerOptions{
		Name:   "paleta",
		Level:  level,
		Output: out,
	})

	path := a.path
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}
	a.SettingsPath = path

	a.Settings = config.Load(path)
	a.Logger.Debug("settings loaded", "path", path,
		"max_warn", a.Settings.MaxWarn, "max_error", a.Settings.MaxError)
	return nil
}

// openDebugLog opens ~/.paleta_debug.log for appending, truncating it
// first when PALETA_DEBUG_RESET is set. Returns nil when the log cannot
// be opened; debug output then goes to stderr only.
func openDebugLog() *os.File {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if os.Getenv(envDebugReset) != "" {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(filepath.Join(home, debugLogFilename), flags, 0o644) // #nosec G302 G304 - debug log in the user's own home dir
	if err != nil {
		return nil
	}
	return f
}

// saveSettings persists the app's settings back to disk. Failures are
// logged, not fatal: losing remembered preferences never fails a run.
func (a *App) saveSettings() {
	if err := config.Save(a.SettingsPath, a.Settings); err != nil {
		a.Logger.Warn("failed to save settings", "error", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
