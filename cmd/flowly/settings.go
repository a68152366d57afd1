package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/flowly/internal/cli"
	"github.com/Veraticus/flowly/internal/common"
	"github.com/Veraticus/flowly/internal/model"
	"github.com/Veraticus/flowly/internal/storage"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change ledger settings",
		RunE:  runShowSettings,
	}

	set := &cobra.Command{
		Use:   "set",
		Short: "Change the unit label or theme",
		Example: `  flowly settings set --unit-label kg
  flowly settings set --theme dark`,
		RunE: runSetSettings,
	}
	set.Flags().String("unit-label", "", "Label for inventory units, e.g. kg or boxes")
	set.Flags().String("theme", "", "Theme (light, dark, system)")
	cmd.AddCommand(set)

	return cmd
}

func runShowSettings(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	return withStorage(ctx, func(store *storage.SQLiteStorage) error {
		snap, err := store.Snapshot(ctx)
		if err != nil {
			return err
		}

		defaultAccount := "none"
		if id := snap.Settings.DefaultAccountID; id != nil {
			defaultAccount = *id
			if account, err := findAccount(snap.Accounts, *id); err == nil {
				defaultAccount = account.Name
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Unit label:      %s\n", snap.Settings.Label())
		fmt.Fprintf(&b, "Theme:           %s\n", snap.Settings.Theme)
		fmt.Fprintf(&b, "Default account: %s\n", defaultAccount)
		fmt.Fprintf(&b, "Time zone:       %s\n", appConfig.Location)
		fmt.Fprintf(&b, "Database:        %s", store.Path())
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Settings", b.String()))
		return nil
	})
}

func runSetSettings(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if !flags.Changed("unit-label") && !flags.Changed("theme") {
		return common.NewUserError("Nothing to change; pass --unit-label or --theme", nil)
	}

	ctx := cmd.Context()
	return withStorage(ctx, func(store *storage.SQLiteStorage) error {
		settings, err := store.GetSettings(ctx)
		if err != nil {
			return err
		}

		if flags.Changed("unit-label") {
			label, _ := flags.GetString("unit-label")
			if strings.TrimSpace(label) == "" {
				return common.NewUserError("Unit label cannot be blank", common.ErrInvalidConfig)
			}
			settings.UnitLabel = label
		}
		if flags.Changed("theme") {
			raw, _ := flags.GetString("theme")
			theme, ok := model.ParseTheme(raw)
			if !ok {
				return common.NewUserError("Theme must be light, dark or system", common.ErrInvalidConfig)
			}
			settings.Theme = theme
		}

		if err := store.UpdateSettings(ctx, settings); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Settings saved"))
		return nil
	})
}
