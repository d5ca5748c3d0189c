package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tgienger/ultralist/internal/models"
)

func newSettingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setting",
		Short: "Read and write raw settings",
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, ok, err := a.store.GetSetting(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("setting %s is not set", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.SetSetting(cmd.Context(), args[0], args[1])
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}

func newThemeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark]",
		Short:     "Show or set the color theme",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{models.ThemeLight, models.ThemeDark},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				return a.store.SetTheme(ctx, args[0])
			}
			theme, err := a.store.Theme(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), theme)
			return nil
		},
	}
}

func newModeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "mode [search|create]",
		Short:     "Show or set what the TUI input bar does",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{models.SearchbarSearch, models.SearchbarCreate},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				return a.store.SetSearchbarMode(ctx, args[0])
			}
			mode, err := a.store.SearchbarMode(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), mode)
			return nil
		},
	}
}

func newMobileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "mobile [on|off]",
		Short:     "Show or set the compact layout",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				return a.store.SetMobileMode(ctx, args[0] == "on")
			}
			enabled, err := a.store.MobileMode(ctx)
			if err != nil {
				return err
			}
			state := "off"
			if enabled {
				state = "on"
			}
			fmt.Fprintln(cmd.OutOrStdout(), state)
			return nil
		},
	}
}
