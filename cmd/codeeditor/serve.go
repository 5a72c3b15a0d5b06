package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/codeeditor/pkg/idle"
	"github.com/odvcencio/codeeditor/pkg/nls"
	"github.com/odvcencio/codeeditor/pkg/observability"
	"github.com/odvcencio/codeeditor/pkg/webclient"
)

func newServeCmd() *cobra.Command {
	var (
		bind        string
		monitorPtys bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workbench bootstrap routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			logger := newLogger(cfg, "webclient")
			events := newEvents(cfg, "webclient", logger)
			defer events.Close()

			if cfg.Observability.Tracing {
				tp, err := observability.NewTracerProvider("codeeditor", version, os.Stderr)
				if err != nil {
					return err
				}
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = tp.Shutdown(ctx)
				}()
			}

			resolver, err := nls.NewResolver(0, logger)
			if err != nil {
				return err
			}
			store := idle.NewStore(cfg.Idle.FilePath)
			srv, err := webclient.NewServer(cfg, webclient.Options{
				NLS:    resolver,
				Idle:   store,
				Logger: logger,
				Events: events,
			})
			if err != nil {
				return withExitCode(err, exitConfig)
			}

			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error { return srv.Start(ctx) })
			if monitorPtys {
				tracker := idle.NewTracker(store, logger, events)
				monitor := idle.NewTerminalMonitor(tracker, cfg.Idle.PtsDir, cfg.Idle.CheckInterval)
				g.Go(func() error {
					if err := monitor.Run(ctx); err != nil && ctx.Err() == nil {
						return err
					}
					return nil
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "address to listen on (overrides config)")
	cmd.Flags().BoolVar(&monitorPtys, "idle-monitor", false, "also treat terminal activity as idle-tracker activity")
	return cmd
}
