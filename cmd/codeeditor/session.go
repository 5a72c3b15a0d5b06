package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/metadata"
	"github.com/odvcencio/codeeditor/pkg/session"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session expiry notifications",
	}

	var cookieFile string
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Warn before the sign-in cookie expires",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cookieFile != "" {
				cfg.Session.CookieFile = cookieFile
			}
			logger := newLogger(cfg, "session")
			events := newEvents(cfg, "session", logger)
			defer events.Close()

			window := newWindowFn()
			meta, err := metadata.Load(cfg.Session.MetadataPath)
			if err != nil {
				logger.Debug("resource metadata unavailable", slog.String("path", cfg.Session.MetadataPath), slog.String("error", err.Error()))
				meta = nil
			}
			session.ShowSpaceStatus(window, meta)

			sched := session.NewScheduler(session.Options{
				Window:    window,
				Source:    session.FileCookieSource{Path: cfg.Session.CookieFile},
				PortalURL: metadata.PortalURL(meta, cfg.Environment.ServiceName),
				Logger:    logger,
				Events:    events,
			})
			ctx := cmd.Context()
			if err := sched.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			sched.Stop()
			return nil
		},
	}
	watch.Flags().StringVar(&cookieFile, "cookie-file", "", "file holding the current Cookie header (overrides config)")

	logoutURL := &cobra.Command{
		Use:   "logout-url <page-url>",
		Short: "Print the sign-out endpoint for the space serving page-url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := session.LogoutURL(args[0])
			if err != nil {
				return withExitCode(cerrors.Wrap(err, cerrors.ErrCodeInvalidInput, "parse page url"), exitInvalid)
			}
			fmt.Fprintln(stdout, u)
			return nil
		},
	}

	cmd.AddCommand(watch, logoutURL)
	return cmd
}
