package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/odvcencio/codeeditor/pkg/config"
	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/host"
	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

// Version information - set via ldflags during build
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

var configPath string

// Seams for tests.
var (
	loadConfigFn = func() (*config.Config, error) {
		if strings.TrimSpace(configPath) != "" {
			return config.LoadFromPath(configPath)
		}
		return config.Load()
	}
	newWindowFn = func() host.Window { return host.NewConsole() }
	stdout      io.Writer = os.Stdout
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", cerrors.UserMessage(err))
		os.Exit(exitCodeForError(err))
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "codeeditor",
		Short:         "Hosted code editor support services",
		Long:          "Workbench bootstrap server and the space-side helpers around it: idle tracking, session expiry, extension sync and library management.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default: ~/.codeeditor/config.yaml and ./.codeeditor/config.yaml)")

	root.AddCommand(
		newServeCmd(),
		newIdleCmd(),
		newExtensionsCmd(),
		newSessionCmd(),
		newLibsCmd(),
		newNotebookCmd(),
		newThemeCmd(),
		newStartupCmd(),
		newTerminalCmd(),
		newEventsCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "codeeditor %s (%s)\n", version, commit)
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := loadConfigFn()
	if err != nil {
		return nil, withExitCode(err, exitConfig)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, component string) *observability.Logger {
	return observability.NewLoggerWithWriter(os.Stderr, component, observability.ParseLevel(cfg.Workbench.LogLevel))
}

// newEvents opens the JSONL audit log when a log directory is configured.
// Failures only cost the audit trail.
func newEvents(cfg *config.Config, component string, logger *observability.Logger) *logging.Logger {
	if strings.TrimSpace(cfg.Observability.LogDir) == "" {
		return nil
	}
	events, err := logging.NewLogger(cfg.Observability.LogDir, component)
	if err != nil {
		logger.OperationFailed("open event log", err)
		return nil
	}
	return events
}
