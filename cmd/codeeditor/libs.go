package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/libmgmt"
)

var stdin io.Reader = os.Stdin

func newLibsCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "libs",
		Short: "Inspect and edit the library configuration",
	}
	cmd.PersistentFlags().StringVar(&file, "file", "", "library configuration path (default: libraries.config_path from config)")

	pathFor := func() (string, error) {
		if file != "" {
			return file, nil
		}
		cfg, err := loadConfig()
		if err != nil {
			return "", err
		}
		return cfg.Libraries.ConfigPath, nil
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration as the editor would load it",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pathFor()
			if err != nil {
				return err
			}
			lc, err := libmgmt.Load(path)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(lc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, string(out))
			return nil
		},
	}

	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check every entry against its section's rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := pathFor()
			if err != nil {
				return err
			}
			lc, err := libmgmt.Load(path)
			if err != nil {
				return err
			}
			issues := libmgmt.ValidateAll(lc)
			for _, is := range issues {
				fmt.Fprintf(stdout, "%s[%d] %q: %s\n", is.Section, is.Index, is.Value, is.Message)
			}
			if len(issues) > 0 {
				return cerrors.Newf(cerrors.ErrCodeLibMgmtInvalid, "%d invalid entries", len(issues))
			}
			fmt.Fprintln(stdout, "ok")
			return nil
		},
	}

	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the configuration document",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := libmgmt.Schema()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, string(raw))
			return nil
		},
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Apply a saveConfig message read from stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if file != "" {
				cfg.Libraries.ConfigPath = file
			}
			raw, err := io.ReadAll(stdin)
			if err != nil {
				return err
			}
			msg, err := libmgmt.DecodeMessage(raw)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, "libmgmt")
			events := newEvents(cfg, "libmgmt", logger)
			defer events.Close()

			h := libmgmt.NewHandler(libmgmt.HandlerOptions{
				Window:        newWindowFn(),
				ConfigPath:    cfg.Libraries.ConfigPath,
				InstallScript: cfg.Libraries.InstallScript,
				SourceDir:     os.ExpandEnv(cfg.Libraries.SourceDir),
				Logger:        logger,
				Events:        events,
			})
			return h.Handle(cmd.Context(), msg)
		},
	}

	cmd.AddCommand(show, validate, schema, save)
	return cmd
}
