package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAndMergeKeepsUnsetDefaults(t *testing.T) {
	cfg := DefaultConfig()
	path := writeFile(t, t.TempDir(), "config.yaml", `
server:
  built: true
gallery:
  resource_url_template: https://{publisher}.gallery.example.com/{name}/{version}/{path}
`)

	require.NoError(t, loadAndMerge(cfg, path))
	assert.True(t, cfg.Server.Built)
	assert.Equal(t, DefaultBind, cfg.Server.Bind)
	assert.Equal(t, DefaultIdleInterval, cfg.Idle.CheckInterval)
	assert.Contains(t, cfg.Gallery.ResourceURLTemplate, "gallery.example.com")
}

func TestLoadAndMergeParsesDurations(t *testing.T) {
	cfg := DefaultConfig()
	path := writeFile(t, t.TempDir(), "config.yaml", "idle:\n  check_interval: 30s\n")

	require.NoError(t, loadAndMerge(cfg, path))
	assert.Equal(t, 30*time.Second, cfg.Idle.CheckInterval)
}

func TestLoadAndMergeRejectsUnknownKeys(t *testing.T) {
	cfg := DefaultConfig()
	path := writeFile(t, t.TempDir(), "config.yaml", "server:\n  bnd: 0.0.0.0:1\n")

	err := loadAndMerge(cfg, path)
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeConfigParse))
}

func TestLoadAndMergeEmptyFile(t *testing.T) {
	cfg := DefaultConfig()
	path := writeFile(t, t.TempDir(), "config.yaml", "\n")
	require.NoError(t, loadAndMerge(cfg, path))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CODEEDITOR_BUILT", "yes")
	t.Setenv("CODEEDITOR_CONNECTION_TOKEN_TYPE", "mandatory")
	t.Setenv("CODEEDITOR_CONNECTION_TOKEN", "secret")
	t.Setenv("CODEEDITOR_IDLE_INTERVAL", "15s")
	t.Setenv("SERVICE_NAME", UnifiedStudioService)
	t.Setenv("SAGEMAKER_APP_TYPE_LOWERCASE", "codeeditor")

	cfg := DefaultConfig()
	require.NoError(t, ApplyEnvOverridesForTest(cfg))

	assert.True(t, cfg.Server.Built)
	assert.Equal(t, "mandatory", cfg.Token.Type)
	assert.Equal(t, "secret", cfg.Token.Value)
	assert.Equal(t, 15*time.Second, cfg.Idle.CheckInterval)
	assert.True(t, cfg.Environment.IsUnifiedStudio())
	assert.Equal(t, "codeeditor", cfg.Environment.AppType)
}

func TestApplyEnvOverridesBadDuration(t *testing.T) {
	t.Setenv("CODEEDITOR_IDLE_INTERVAL", "soon")
	err := ApplyEnvOverridesForTest(DefaultConfig())
	require.Error(t, err)
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeConfigParse))
}

func TestParseBool(t *testing.T) {
	cases := map[string]struct {
		val, ok bool
	}{
		"1":     {true, true},
		"true":  {true, true},
		"on":    {true, true},
		"0":     {false, true},
		"off":   {false, true},
		"":      {false, false},
		"maybe": {false, false},
	}
	for raw, want := range cases {
		v, ok := parseBool(raw)
		assert.Equal(t, want.val, v, raw)
		assert.Equal(t, want.ok, ok, raw)
	}
}
