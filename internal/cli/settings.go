package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/spectral-tools/paleta/internal/config"
)

func newSettingsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change stored settings",
		Long: `Inspect and change the settings remembered between runs: the colour
count thresholds, the max-mode scan heuristics and the last-used
extraction parameters.`,
	}

	cmd.AddCommand(newSettingsShowCmd(app))
	cmd.AddCommand(newSettingsSetCmd(app))
	cmd.AddCommand(newSettingsResetCmd(app))
	return cmd
}

func newSettingsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := json.MarshalIndent(app.Settings, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode settings: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newSettingsSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting and save",
		Long: `Change one setting and save the settings file.

Keys: max-warn, max-error, max-quant-dim, max-sample-dim,
full-scan-pixel-limit, unique-threshold, unique-ratio-threshold.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applySetting(&app.Settings, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(app.SettingsPath, app.Settings); err != nil {
				return err
			}
			app.Logger.Debug("setting saved", "key", args[0], "value", args[1])
			return nil
		},
	}
}

func newSettingsResetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the settings file, restoring defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Reset(app.SettingsPath); err != nil {
				return err
			}
			app.Settings = config.Defaults()
			fmt.Fprintln(cmd.OutOrStdout(), "settings reset to defaults")
			return nil
		},
	}
}

// applySetting updates one field of s from its CLI key and string value.
func applySetting(s *config.Settings, key, value string) error {
	setInt := func(dst *int, min int) error {
		n, err := strconv.Atoi(value)
		if err != nil || n < min {
			return fmt.Errorf("invalid value for %s: %q", key, value)
		}
		*dst = n
		return nil
	}

	switch key {
	case "max-warn":
		if err := setInt(&s.MaxWarn, 1); err != nil {
			return err
		}
		if s.MaxError < s.MaxWarn {
			s.MaxError = s.MaxWarn
		}
		return nil
	case "max-error":
		n, err := strconv.Atoi(value)
		if err != nil || n < s.MaxWarn {
			return fmt.Errorf("max-error must be a number >= max-warn (%d)", s.MaxWarn)
		}
		s.MaxError = n
		return nil
	case "max-quant-dim":
		return setInt(&s.MaxQuantDim, 1)
	case "max-sample-dim":
		return setInt(&s.MaxSampleDim, 1)
	case "full-scan-pixel-limit":
		return setInt(&s.FullScanPixelLimit, 1)
	case "unique-threshold":
		return setInt(&s.UniqueThreshold, 1)
	case "unique-ratio-threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid value for %s: %q (want a ratio in (0, 1])", key, value)
		}
		s.UniqueRatioThreshold = f
		return nil
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
}
