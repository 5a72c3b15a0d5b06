package idle

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

// Activity names an editor event that counts as user activity.
type Activity string

const (
	ActivityDocumentChange  Activity = "document_change"
	ActivityEditorFocus     Activity = "editor_focus"
	ActivitySelectionChange Activity = "selection_change"
	ActivityTerminalOpen    Activity = "terminal_open"
	ActivityTerminalClose   Activity = "terminal_close"
	ActivityTerminalIO      Activity = "terminal_io"
)

// ParseActivity maps an event name onto an Activity.
func ParseActivity(name string) (Activity, bool) {
	switch a := Activity(name); a {
	case ActivityDocumentChange, ActivityEditorFocus, ActivitySelectionChange,
		ActivityTerminalOpen, ActivityTerminalClose, ActivityTerminalIO:
		return a, true
	}
	return "", false
}

// Tracker records activity into a Store.
type Tracker struct {
	store  *Store
	now    func() time.Time
	logger *observability.Logger
	events *logging.Logger
}

// NewTracker creates a tracker. events may be nil.
func NewTracker(store *Store, logger *observability.Logger, events *logging.Logger) *Tracker {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Tracker{store: store, now: time.Now, logger: logger, events: events}
}

// RecordActivity unconditionally overwrites the sentinel with the current time.
func (t *Tracker) RecordActivity(kind Activity) error {
	now := t.now()
	if err := t.store.Touch(now); err != nil {
		t.logger.OperationFailed("idle.touch", err)
		_ = t.events.Error(logging.CategoryIdle, "touch_failed", err.Error(), map[string]any{"source": string(kind)})
		return err
	}
	observability.IdleTouches.WithLabelValues(string(kind)).Inc()
	t.logger.IdleTouched(string(kind), Format(now))
	return nil
}

// TerminalMonitor treats recent writes to pseudo-terminal devices as activity,
// since terminal I/O does not raise editor events.
type TerminalMonitor struct {
	tracker  *Tracker
	ptsDir   string
	interval time.Duration
}

// NewTerminalMonitor scans ptsDir every interval.
func NewTerminalMonitor(tracker *Tracker, ptsDir string, interval time.Duration) *TerminalMonitor {
	if interval <= 0 {
		interval = time.Minute
	}
	return &TerminalMonitor{tracker: tracker, ptsDir: ptsDir, interval: interval}
}

// Run scans until ctx is cancelled.
func (m *TerminalMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := m.CheckOnce(m.tracker.now()); err != nil {
				m.tracker.logger.OperationFailed("idle.pts_scan", err)
			}
		}
	}
}

// CheckOnce touches the sentinel when any device in the pts directory was
// modified within the last interval. It reports whether it touched.
func (m *TerminalMonitor) CheckOnce(now time.Time) (bool, error) {
	entries, err := os.ReadDir(m.ptsDir)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		info, err := os.Stat(filepath.Join(m.ptsDir, entry.Name()))
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < m.interval {
			return true, m.tracker.RecordActivity(ActivityTerminalIO)
		}
	}
	return false, nil
}
