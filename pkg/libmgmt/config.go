// Package libmgmt reads, validates and saves the space's library
// configuration (.libs.json) and drives its install script.
package libmgmt

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

// Config is the .libs.json document.
type Config struct {
	ApplyChangeToSpace bool   `json:"ApplyChangeToSpace"`
	Jar                Jar    `json:"Jar"`
	Python             Python `json:"Python"`
}

// Jar lists JVM dependencies by source.
type Jar struct {
	MavenArtifacts []string `json:"MavenArtifacts"`
	S3Paths        []string `json:"S3Paths"`
	LocalPaths     []string `json:"LocalPaths"`
	OtherPaths     []string `json:"OtherPaths"`
}

// Python lists Python dependencies by source.
type Python struct {
	CondaPackages CondaPackages `json:"CondaPackages"`
	PyPIPackages  []string      `json:"PyPIPackages"`
	S3Paths       []string      `json:"S3Paths"`
	LocalPaths    []string      `json:"LocalPaths"`
	OtherPaths    []string      `json:"OtherPaths"`
}

// CondaPackages pairs channels with package specs.
type CondaPackages struct {
	Channels     []string `json:"Channels"`
	PackageSpecs []string `json:"PackageSpecs"`
}

// normalize replaces nil lists with empty ones so the file always carries
// arrays, never null.
func (c *Config) normalize() {
	for _, list := range []*[]string{
		&c.Jar.MavenArtifacts, &c.Jar.S3Paths, &c.Jar.LocalPaths, &c.Jar.OtherPaths,
		&c.Python.CondaPackages.Channels, &c.Python.CondaPackages.PackageSpecs,
		&c.Python.PyPIPackages, &c.Python.S3Paths, &c.Python.LocalPaths, &c.Python.OtherPaths,
	} {
		if *list == nil {
			*list = []string{}
		}
	}
}

// Parse checks raw against the schema and decodes it.
func Parse(raw []byte) (*Config, error) {
	if err := ValidateDocument(raw); err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrCodeLibMgmtInvalid, "decode library configuration").
			WithUserMessage("Invalid JSON file format")
	}
	cfg.normalize()
	return &cfg, nil
}

// Load reads and parses the configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, cerrors.Wrap(err, cerrors.ErrCodeLibMgmtIO, "library configuration missing").
			WithUserMessage(fmt.Sprintf("File not found: %s", path))
	}
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.ErrCodeLibMgmtIO, "read library configuration").
			WithContext("path", path)
	}
	return Parse(raw)
}

// Save writes cfg to path as 2-space indented JSON.
func Save(path string, cfg *Config) error {
	cfg.normalize()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(cfg); err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeLibMgmtIO, "encode library configuration")
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeLibMgmtIO, "write library configuration").
			WithContext("path", path)
	}
	return nil
}
