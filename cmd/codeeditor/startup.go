package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/codeeditor/pkg/poststartup"
)

func newStartupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "startup",
		Short: "Post-startup status notifications",
	}

	watch := &cobra.Command{
		Use:   "watch",
		Short: "Notify whenever the post-startup status file changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, "poststartup")
			events := newEvents(cfg, "poststartup", logger)
			defer events.Close()

			w := poststartup.NewWatcher(poststartup.Options{
				Window:      newWindowFn(),
				StatusFile:  cfg.Startup.StatusFile,
				Stability:   cfg.Startup.Stability,
				ServiceName: cfg.Environment.ServiceName,
				Logger:      logger,
				Events:      events,
			})
			if !w.Enabled() {
				logger.Info("post-startup notifications are disabled outside unified studio")
				return nil
			}
			return w.Run(cmd.Context())
		},
	}

	cmd.AddCommand(watch)
	return cmd
}
