package main

import (
	"fmt"

	"github.com/spf13/cobra"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/theme"
)

func newThemeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Default color theme bootstrap",
	}

	var (
		userSettings, workspaceSettings string
		dryRun                          bool
	)
	apply := &cobra.Command{
		Use:   "apply",
		Short: "Write the default theme unless one is already chosen",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if userSettings != "" {
				cfg.Theme.UserSettingsPath = userSettings
			}
			if workspaceSettings != "" {
				cfg.Theme.WorkspaceSettingsPath = workspaceSettings
			}
			if cfg.Theme.UserSettingsPath == "" {
				return withExitCode(cerrors.New(cerrors.ErrCodeConfigInvalid, "theme.user_settings_path is not set"), exitConfig)
			}
			logger := newLogger(cfg, "theme")
			events := newEvents(cfg, "theme", logger)
			defer events.Close()

			applier := theme.NewApplier(theme.Options{
				Window:            newWindowFn(),
				UserSettings:      cfg.Theme.UserSettingsPath,
				WorkspaceSettings: cfg.Theme.WorkspaceSettingsPath,
				Theme:             cfg.Theme.Default,
				ServiceName:       cfg.Environment.ServiceName,
				Logger:            logger,
				Events:            events,
			})
			if dryRun {
				diff, err := applier.Preview()
				if err != nil {
					return err
				}
				fmt.Fprint(stdout, diff)
				return nil
			}
			changed, err := applier.Apply(cmd.Context())
			if err != nil {
				return err
			}
			if changed {
				fmt.Fprintf(stdout, "%s set to %q\n", theme.SettingKey, cfg.Theme.Default)
			}
			return nil
		},
	}
	apply.Flags().StringVar(&userSettings, "user-settings", "", "user settings.json path")
	apply.Flags().BoolVar(&dryRun, "dry-run", false, "print the settings diff instead of writing it")
	apply.Flags().StringVar(&workspaceSettings, "workspace-settings", "", "workspace settings.json path")

	cmd.AddCommand(apply)
	return cmd
}
