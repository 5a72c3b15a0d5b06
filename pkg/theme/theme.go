// Package theme gives new unified-studio users the dark theme unless they
// already chose one.
package theme

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/odvcencio/codeeditor/pkg/config"
	"github.com/odvcencio/codeeditor/pkg/host"
	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/nls"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

// SettingKey is the editor setting holding the color theme.
const SettingKey = "workbench.colorTheme"

// Options configure an Applier.
type Options struct {
	Window            host.Window
	UserSettings      string
	WorkspaceSettings string
	Theme             string
	ServiceName       string
	Logger            *observability.Logger
	Events            *logging.Logger
}

// Applier writes the default theme into user settings.
type Applier struct {
	opts Options
}

// NewApplier builds an Applier.
func NewApplier(opts Options) *Applier {
	if opts.Theme == "" {
		opts.Theme = config.DefaultTheme
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Applier{opts: opts}
}

// Apply sets the theme when neither user nor workspace settings choose one,
// then asks the window to reload. It reports whether settings were changed.
func (a *Applier) Apply(ctx context.Context) (bool, error) {
	if a.opts.ServiceName != config.UnifiedStudioService {
		return false, nil
	}

	for _, path := range []string{a.opts.UserSettings, a.opts.WorkspaceSettings} {
		if path == "" {
			continue
		}
		set, err := hasSetting(path, SettingKey)
		if err != nil {
			a.opts.Logger.OperationFailed("read settings", err)
			return false, err
		}
		if set {
			a.opts.Logger.Info("theme already configured, not overriding", slog.String("settings", path))
			return false, nil
		}
	}

	if err := writeSetting(a.opts.UserSettings, SettingKey, a.opts.Theme); err != nil {
		a.opts.Logger.OperationFailed("apply theme", err)
		return false, err
	}
	a.opts.Logger.Info("theme configuration updated", slog.String("theme", a.opts.Theme))
	_ = a.opts.Events.Info(logging.CategoryTheme, "applied", a.opts.Theme, nil)

	if a.opts.Window != nil {
		if err := a.opts.Window.ReloadWindow(ctx); err != nil {
			return true, err
		}
	}
	return true, nil
}

func readSettings(path string) (string, map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return "", nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	content := string(raw)
	clean := stripTrailingCommas(nls.StripComments(content))
	if strings.TrimSpace(clean) == "" {
		return content, nil, nil
	}
	var settings map[string]json.RawMessage
	if err := json.Unmarshal([]byte(clean), &settings); err != nil {
		return content, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return content, settings, nil
}

func hasSetting(path, key string) (bool, error) {
	_, settings, err := readSettings(path)
	if err != nil {
		return false, err
	}
	v, ok := settings[key]
	return ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")), nil
}

// writeSetting inserts key as the first property so comments and layout of
// the rest of the file survive.
func writeSetting(path, key, value string) error {
	content, settings, err := readSettings(path)
	if err != nil {
		return err
	}
	out, err := withSetting(content, settings, key, value)
	if err != nil {
		return fmt.Errorf("settings %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0o644)
}

func withSetting(content string, settings map[string]json.RawMessage, key, value string) (string, error) {
	k, _ := json.Marshal(key)
	v, _ := json.Marshal(value)
	entry := fmt.Sprintf("\n    %s: %s", k, v)

	if settings == nil {
		return "{" + entry + "\n}\n", nil
	}
	start := objectStart(content)
	if start < 0 {
		return "", stderrors.New("not a JSON object")
	}
	if len(settings) > 0 {
		entry += ","
	}
	return content[:start+1] + entry + content[start+1:], nil
}

// Preview returns a unified diff of the change Apply would make to the user
// settings, or "" when Apply would leave them alone.
func (a *Applier) Preview() (string, error) {
	if a.opts.ServiceName != config.UnifiedStudioService {
		return "", nil
	}
	for _, path := range []string{a.opts.UserSettings, a.opts.WorkspaceSettings} {
		if path == "" {
			continue
		}
		set, err := hasSetting(path, SettingKey)
		if err != nil {
			return "", err
		}
		if set {
			return "", nil
		}
	}

	content, settings, err := readSettings(a.opts.UserSettings)
	if err != nil {
		return "", err
	}
	out, err := withSetting(content, settings, SettingKey, a.opts.Theme)
	if err != nil {
		return "", fmt.Errorf("settings %s: %w", a.opts.UserSettings, err)
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(content),
		B:        difflib.SplitLines(out),
		FromFile: a.opts.UserSettings,
		ToFile:   a.opts.UserSettings,
		Context:  3,
	})
}

// objectStart returns the offset of the first '{' outside comments.
func objectStart(content string) int {
	for i := 0; i < len(content); i++ {
		switch {
		case content[i] == '{':
			return i
		case strings.HasPrefix(content[i:], "//"):
			end := strings.IndexByte(content[i:], '\n')
			if end < 0 {
				return -1
			}
			i += end
		case strings.HasPrefix(content[i:], "/*"):
			end := strings.Index(content[i+2:], "*/")
			if end < 0 {
				return -1
			}
			i += end + 3
		}
	}
	return -1
}

// stripTrailingCommas drops commas that directly precede a closing bracket,
// which the editor's settings parser tolerates.
func stripTrailingCommas(content string) string {
	var sb strings.Builder
	sb.Grow(len(content))
	inString := false
	for i := 0; i < len(content); i++ {
		c := content[i]
		if inString {
			sb.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(content) {
					i++
					sb.WriteByte(content[i])
				}
			case '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			rest := strings.TrimLeft(content[i+1:], " \t\r\n")
			if strings.HasPrefix(rest, "}") || strings.HasPrefix(rest, "]") {
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}
