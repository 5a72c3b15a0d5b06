package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/odvcencio/codeeditor/pkg/config"
	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/idle"
)

func newIdleCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "idle",
		Short: "Inspect or update the idle sentinel file",
	}
	cmd.PersistentFlags().StringVar(&path, "file", "", "sentinel path (default: idle.file_path from config)")

	// open returns the store, a tracker over it and a func releasing the
	// event log.
	open := func() (*config.Config, *idle.Store, *idle.Tracker, func(), error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, nil, nil, nil, err
		}
		p := cfg.Idle.FilePath
		if strings.TrimSpace(path) != "" {
			p = path
		}
		logger := newLogger(cfg, "idle")
		events := newEvents(cfg, "idle", logger)
		store := idle.NewStore(p)
		return cfg, store, idle.NewTracker(store, logger, events), func() { _ = events.Close() }, nil
	}

	touch := &cobra.Command{
		Use:   "touch [activity]",
		Short: "Record activity now",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := idle.ActivityDocumentChange
			if len(args) == 1 {
				k, ok := idle.ParseActivity(args[0])
				if !ok {
					return withExitCode(cerrors.Newf(cerrors.ErrCodeInvalidInput, "unknown activity %q", args[0]), exitInvalid)
				}
				kind = k
			}
			_, _, tracker, done, err := open()
			if err != nil {
				return err
			}
			defer done()
			return tracker.RecordActivity(kind)
		},
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the last recorded activity, creating the file if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, _, done, err := open()
			if err != nil {
				return err
			}
			defer done()
			if _, err := store.EnsureExists(time.Now()); err != nil {
				return err
			}
			raw, err := store.Read()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, raw)
			return nil
		},
	}

	monitor := &cobra.Command{
		Use:   "monitor",
		Short: "Touch the sentinel whenever a terminal device sees I/O",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, tracker, done, err := open()
			if err != nil {
				return err
			}
			defer done()
			m := idle.NewTerminalMonitor(tracker, cfg.Idle.PtsDir, cfg.Idle.CheckInterval)
			if err := m.Run(cmd.Context()); err != nil && cmd.Context().Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.AddCommand(touch, show, monitor)
	return cmd
}
