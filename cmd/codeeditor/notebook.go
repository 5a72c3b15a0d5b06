package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odvcencio/codeeditor/pkg/notebook"
)

func newNotebookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notebook",
		Short: "Sample notebook helpers",
	}

	var key, cluster, region string
	open := &cobra.Command{
		Use:   "open",
		Short: "Download a cached notebook, point it at a cluster and open it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opener := notebook.NewOpener(notebook.Options{
				Window: newWindowFn(),
				Dir:    cfg.Notebook.DownloadDir,
				Logger: newLogger(cfg, "notebook"),
			})
			path, err := opener.Open(cmd.Context(), key, cluster, region)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, path)
			return nil
		},
	}
	open.Flags().StringVar(&key, "key", "", "object key of the notebook in the regional cache")
	open.Flags().StringVar(&cluster, "cluster", "", "cluster identifier substituted into connection cells")
	open.Flags().StringVar(&region, "region", "", "AWS region of the cache bucket")
	_ = open.MarkFlagRequired("key")
	_ = open.MarkFlagRequired("region")

	cmd.AddCommand(open)
	return cmd
}
