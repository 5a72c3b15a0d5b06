package main

import (
	"github.com/spf13/cobra"

	"github.com/odvcencio/codeeditor/pkg/termguard"
)

func newTerminalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "terminal",
		Short: "Terminal crash mitigation",
	}

	guard := &cobra.Command{
		Use:   "guard",
		Short: "Read terminal open/close events from stdin and clear stuck shells",
		Long:  `Each stdin line is a JSON event such as {"event":"open","pid":42} or {"event":"close","pid":42,"remaining":0}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, "termguard")
			events := newEvents(cfg, "termguard", logger)
			defer events.Close()

			g := termguard.NewGuard(termguard.Options{Logger: logger, Events: events})
			return g.Watch(cmd.Context(), stdin)
		},
	}

	cmd.AddCommand(guard)
	return cmd
}
