package paths

import (
	"os"
	"path/filepath"
	"strings"
)

const EnvLogDir = "CODEEDITOR_LOG_DIR"

// LogsBaseDir is where JSONL audit logs land unless overridden.
func LogsBaseDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvLogDir)); dir != "" {
		return filepath.Clean(ExpandHome(dir))
	}
	return filepath.Join(".codeeditor", "logs")
}

// ExpandHome resolves a leading "~" against the user's home directory.
func ExpandHome(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home := HomeDir()
		if home == "" {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/"))
	}
	return path
}

// HomeDir reads HOME, then USERPROFILE. Empty when neither is set.
func HomeDir() string {
	if home := strings.TrimSpace(os.Getenv("HOME")); home != "" {
		return home
	}
	return strings.TrimSpace(os.Getenv("USERPROFILE"))
}

func LogsBaseDirForWorkdir(workdir string) string {
	base := LogsBaseDir()
	if filepath.IsAbs(base) || strings.TrimSpace(workdir) == "" {
		return base
	}
	return filepath.Join(workdir, base)
}

func LogsDir(component string) string {
	base := LogsBaseDir()
	component = strings.TrimSpace(component)
	if component == "" {
		return base
	}
	return filepath.Join(base, component)
}
