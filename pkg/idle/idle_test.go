package idle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
)

func TestFormatMatchesISOString(t *testing.T) {
	ts := time.Date(2024, 3, 9, 7, 5, 1, 42_000_000, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-03-09T06:05:01.042Z", Format(ts))
}

func TestEnsureExistsCreatesOnce(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), ".sagemaker-last-active-timestamp"))
	first := time.Now()

	created, err := store.EnsureExists(first)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = store.EnsureExists(first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, created)

	raw, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, Format(first), raw)
}

func TestTouchOverwrites(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nested", "idle"))
	require.NoError(t, store.Touch(time.Unix(100, 0)))
	later := time.Unix(200, 0)
	require.NoError(t, store.Touch(later))

	got, err := store.ReadTime()
	require.NoError(t, err)
	assert.True(t, got.Equal(later))
}

func TestReadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing"))
	_, err := store.Read()
	assert.True(t, cerrors.IsCode(err, cerrors.ErrCodeIdleIO))
}

func TestDefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".code-editor-last-active-timestamp"), DefaultPath(".code-editor-last-active-timestamp"))
}

func TestParseActivity(t *testing.T) {
	a, ok := ParseActivity("editor_focus")
	assert.True(t, ok)
	assert.Equal(t, ActivityEditorFocus, a)
	_, ok = ParseActivity("scroll")
	assert.False(t, ok)
}

func TestTrackerRecordActivity(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "idle"))
	tracker := NewTracker(store, nil, nil)
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return fixed }

	require.NoError(t, tracker.RecordActivity(ActivityDocumentChange))
	raw, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, "2025-01-01T00:00:00.000Z", raw)
}

func TestTrackerReportsWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	tracker := NewTracker(NewStore(filepath.Join(blocker, "idle")), nil, nil)
	assert.Error(t, tracker.RecordActivity(ActivityTerminalOpen))
}

func TestTerminalMonitorCheckOnce(t *testing.T) {
	pts := t.TempDir()
	store := NewStore(filepath.Join(t.TempDir(), "idle"))
	monitor := NewTerminalMonitor(NewTracker(store, nil, nil), pts, time.Minute)
	now := time.Now()

	stale := filepath.Join(pts, "0")
	require.NoError(t, os.WriteFile(stale, nil, 0o600))
	old := now.Add(-5 * time.Minute)
	require.NoError(t, os.Chtimes(stale, old, old))

	touched, err := monitor.CheckOnce(now)
	require.NoError(t, err)
	assert.False(t, touched)
	_, err = store.Read()
	assert.Error(t, err)

	fresh := filepath.Join(pts, "1")
	require.NoError(t, os.WriteFile(fresh, nil, 0o600))
	recent := now.Add(-10 * time.Second)
	require.NoError(t, os.Chtimes(fresh, recent, recent))

	touched, err = monitor.CheckOnce(now)
	require.NoError(t, err)
	assert.True(t, touched)
	_, err = store.Read()
	assert.NoError(t, err)
}

func TestTerminalMonitorSeesRealPty(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	_, _ = tty.Write([]byte("ls\n"))

	store := NewStore(filepath.Join(t.TempDir(), "idle"))
	monitor := NewTerminalMonitor(NewTracker(store, nil, nil), filepath.Dir(tty.Name()), time.Minute)
	touched, err := monitor.CheckOnce(time.Now())
	if err != nil {
		t.Skipf("pts directory unreadable: %v", err)
	}
	assert.True(t, touched)
}

func TestTerminalMonitorRunStopsOnCancel(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "idle"))
	monitor := NewTerminalMonitor(NewTracker(store, nil, nil), t.TempDir(), 10*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, monitor.Run(ctx), context.DeadlineExceeded)
}
