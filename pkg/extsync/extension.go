// Package extsync reconciles the extensions shipped in the image with the
// ones installed on the user's persistent volume.
package extsync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ExtensionInfo identifies one extension folder on disk.
type ExtensionInfo struct {
	Name      string
	Publisher string
	Version   string
	Path      string
}

// Identifier returns publisher.name@version, the form the editor CLI prints.
func (e ExtensionInfo) Identifier() string {
	return fmt.Sprintf("%s.%s@%s", e.Publisher, e.Name, e.Version)
}

// Basename is the folder name used as the install target and .obsolete key.
func (e ExtensionInfo) Basename() string {
	return filepath.Base(e.Path)
}

type packageManifest struct {
	Name      string `json:"name"`
	Publisher string `json:"publisher"`
	Version   string `json:"version"`
}

// SkipFunc is told about directory entries that were not usable extensions.
type SkipFunc func(path string, err error)

// ScanDirectory lists the extensions directly under dir. Entries that are not
// directories, dangling links, and folders without a complete package.json
// are skipped and reported to skip when it is non-nil. The result is sorted
// by identifier.
func ScanDirectory(dir string, skip SkipFunc) ([]ExtensionInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []ExtensionInfo
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		ext, err := readExtension(path)
		if err != nil {
			if skip != nil {
				skip(path, err)
			}
			continue
		}
		if ext != nil {
			out = append(out, *ext)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier() < out[j].Identifier() })
	return out, nil
}

// readExtension returns nil, nil for plain files.
func readExtension(path string) (*ExtensionInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(path, "package.json"))
	if err != nil {
		return nil, err
	}
	var manifest packageManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	if manifest.Name == "" || manifest.Publisher == "" || manifest.Version == "" {
		return nil, fmt.Errorf("package.json missing name, publisher or version")
	}
	return &ExtensionInfo{
		Name:      manifest.Name,
		Publisher: manifest.Publisher,
		Version:   manifest.Version,
		Path:      path,
	}, nil
}
