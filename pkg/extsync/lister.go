package extsync

//go:generate mockgen -destination=mocks/mock_lister.go -package=mocks github.com/odvcencio/codeeditor/pkg/extsync Lister

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

// Lister reports the identifiers the editor considers installed.
type Lister interface {
	Installed(ctx context.Context) ([]string, error)
}

// CLILister asks the editor CLI. The persistent volume can hold stale
// folders, so the CLI is the source of truth for what is installed.
type CLILister struct {
	CLI       string
	VolumeDir string
}

// Installed runs `<cli> --list-extensions --show-versions --extensions-dir <dir>`.
// Any output on stderr is treated as failure.
func (l CLILister) Installed(ctx context.Context) ([]string, error) {
	cmd := exec.CommandContext(ctx, l.CLI, "--list-extensions", "--show-versions", "--extensions-dir", l.VolumeDir)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrCodeExtSyncList, "list installed extensions").
			WithContext("stderr", strings.TrimSpace(stderr.String()))
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return nil, cerrors.New(cerrors.ErrCodeExtSyncList, msg).WithContext("cli", l.CLI)
	}
	return parseListing(stdout.String()), nil
}

func parseListing(out string) []string {
	var ids []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}
	return ids
}
