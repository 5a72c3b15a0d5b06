package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/logging"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read the JSONL audit log",
	}

	var (
		count    int
		errorLog bool
	)
	tail := &cobra.Command{
		Use:   "tail [component]",
		Short: "Print the most recent events of a component, or of the error mirror",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !errorLog && len(args) == 0 {
				return withExitCode(cerrors.New(cerrors.ErrCodeInvalidInput, "a component or --errors is required"), exitInvalid)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir := strings.TrimSpace(cfg.Observability.LogDir)
			if dir == "" {
				return withExitCode(cerrors.New(cerrors.ErrCodeConfigInvalid, "observability.log_dir is not set"), exitConfig)
			}

			path := logging.ErrorLogPath(dir)
			if !errorLog {
				path = logging.EventLogPath(dir, args[0])
			}
			events, err := logging.ReadRecentEvents(path, count)
			if err != nil {
				return err
			}
			for _, ev := range events {
				line := fmt.Sprintf("%s %-5s %s/%s", ev.Timestamp.UTC().Format(time.RFC3339), ev.Level, ev.Category, ev.EventType)
				if ev.Message != "" {
					line += " " + ev.Message
				}
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
	tail.Flags().IntVarP(&count, "lines", "n", 20, "number of events to print (0 for all)")
	tail.Flags().BoolVar(&errorLog, "errors", false, "read errors.jsonl instead of a component log")

	cmd.AddCommand(tail)
	return cmd
}
