package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/codeeditor/pkg/extsync"
)

func newExtensionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extensions",
		Short: "Manage prepackaged extensions",
	}

	var dryRun bool
	sync := &cobra.Command{
		Use:   "sync",
		Short: "Offer to install prepackaged extensions missing from the persistent volume",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, "extsync")
			events := newEvents(cfg, "extsync", logger)
			defer events.Close()

			rec := extsync.NewReconciler(extsync.Options{
				Window:    newWindowFn(),
				Lister:    extsync.CLILister{CLI: cfg.Extensions.CLI, VolumeDir: cfg.Extensions.VolumeDir},
				ImageDir:  cfg.Extensions.ImageDir,
				VolumeDir: cfg.Extensions.VolumeDir,
				AppType:   cfg.Environment.AppType,
				Logger:    logger,
				Events:    events,
			})

			if dryRun {
				plan, err := rec.Inventory(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range plan.Unsynced {
					if v := c.CurrentVersion(); v != "" {
						fmt.Fprintf(stdout, "%s (installed: %s)\n", c.Extension.Identifier(), v)
						continue
					}
					fmt.Fprintln(stdout, c.Extension.Identifier())
				}
				return nil
			}

			installed, err := rec.Run(cmd.Context())
			for _, id := range installed {
				fmt.Fprintf(stdout, "installed %s\n", id)
			}
			return err
		},
	}
	sync.Flags().BoolVar(&dryRun, "dry-run", false, "list unsynchronized extensions without prompting")

	cmd.AddCommand(sync)
	return cmd
}
