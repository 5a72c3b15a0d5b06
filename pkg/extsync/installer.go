package extsync

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

const (
	obsoleteFile  = ".obsolete"
	metadataIndex = "extensions.json"
)

// Installer links prepackaged extensions into the persistent volume.
type Installer struct {
	VolumeDir string
}

// Install symlinks pre into the volume and records the swap in .obsolete so
// the editor's scanner hides current, the folder being superseded.
func (i Installer) Install(pre ExtensionInfo, current *ExtensionInfo) error {
	if _, err := os.Stat(pre.Path); err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeExtSyncInstall, "prepackaged extension path missing").
			WithContext("extension", pre.Identifier())
	}

	target := filepath.Join(i.VolumeDir, pre.Basename())
	if err := os.RemoveAll(target); err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeExtSyncInstall, "remove existing install target").
			WithContext("target", target)
	}
	if err := os.Symlink(pre.Path, target); err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeExtSyncInstall, "link prepackaged extension").
			WithContext("target", target)
	}

	marks, err := i.readObsolete()
	if err != nil {
		return err
	}
	if current != nil {
		marks[current.Basename()] = true
	}
	marks[pre.Basename()] = false
	return i.writeObsolete(marks)
}

// readObsolete returns the current marks. A missing file starts empty; an
// unreadable or malformed one is moved aside to .obsolete.bak.
func (i Installer) readObsolete() (map[string]bool, error) {
	path := filepath.Join(i.VolumeDir, obsoleteFile)
	marks := map[string]bool{}

	data, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return marks, nil
	}
	if err == nil {
		err = json.Unmarshal(data, &marks)
		if err == nil && marks != nil {
			return marks, nil
		}
		if err == nil {
			err = stderrors.New(".obsolete holds no object")
		}
		marks = map[string]bool{}
	}

	if rerr := os.Rename(path, path+".bak"); rerr != nil {
		return nil, cerrors.Wrap(rerr, cerrors.ErrCodeExtSyncInstall, "back up unreadable .obsolete").
			WithContext("cause", err.Error())
	}
	return marks, nil
}

func (i Installer) writeObsolete(marks map[string]bool) error {
	data, err := json.MarshalIndent(marks, "", "  ")
	if err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeExtSyncInstall, "encode .obsolete")
	}
	path := filepath.Join(i.VolumeDir, obsoleteFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeExtSyncInstall, fmt.Sprintf("write %s", path))
	}
	return nil
}

// ReadObsolete returns the marks currently on disk.
func (i Installer) ReadObsolete() (map[string]bool, error) {
	data, err := os.ReadFile(filepath.Join(i.VolumeDir, obsoleteFile))
	if err != nil {
		return nil, err
	}
	marks := map[string]bool{}
	if err := json.Unmarshal(data, &marks); err != nil {
		return nil, err
	}
	return marks, nil
}

// RefreshMetadata deletes the cached extensions.json so the editor rebuilds
// it on the next start.
func (i Installer) RefreshMetadata() error {
	err := os.Remove(filepath.Join(i.VolumeDir, metadataIndex))
	if err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
