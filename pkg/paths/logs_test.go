package paths

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLogsBaseDirDefaultsToRelativePath(t *testing.T) {
	t.Setenv(EnvLogDir, "")
	if got := LogsBaseDir(); got != filepath.Join(".codeeditor", "logs") {
		t.Fatalf("unexpected base logs dir: %q", got)
	}
}

func TestLogsBaseDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvLogDir, "~/editor/logs")
	want := filepath.Join(home, "editor", "logs")
	if got := LogsBaseDir(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExpandHomeSupportsBareHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if got := ExpandHome("~"); got != home {
		t.Fatalf("expected %q, got %q", home, got)
	}
}

func TestHomeDirFallsBackToUserProfile(t *testing.T) {
	t.Setenv("HOME", "")
	t.Setenv("USERPROFILE", `C:\Users\dev`)
	if got := HomeDir(); got != `C:\Users\dev` {
		t.Fatalf("expected USERPROFILE, got %q", got)
	}
}

func TestLogsBaseDirForWorkdirAnchorsRelative(t *testing.T) {
	t.Setenv(EnvLogDir, "relative/logs")
	workdir := t.TempDir()
	want := filepath.Join(workdir, "relative", "logs")
	if got := LogsBaseDirForWorkdir(workdir); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLogsBaseDirForWorkdirDoesNotAnchorAbsolute(t *testing.T) {
	workdir := t.TempDir()
	abs := filepath.Join(os.TempDir(), "codeeditor-logs")
	t.Setenv(EnvLogDir, abs)
	if got := LogsBaseDirForWorkdir(workdir); got != abs {
		t.Fatalf("expected %q, got %q", abs, got)
	}
}

func TestLogsDirAppendsComponent(t *testing.T) {
	t.Setenv(EnvLogDir, "/var/log/editor")
	if got := LogsDir("extsync"); got != filepath.Join("/var/log/editor", "extsync") {
		t.Fatalf("unexpected dir: %q", got)
	}
	if got := LogsDir("  "); got != "/var/log/editor" {
		t.Fatalf("unexpected dir: %q", got)
	}
}
