// Package poststartup surfaces the space's post-startup script status to the
// user as it changes.
package poststartup

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/odvcencio/codeeditor/pkg/config"
	"github.com/odvcencio/codeeditor/pkg/host"
	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

// Status is the content of the status file written by the startup script.
type Status struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Options configure a Watcher.
type Options struct {
	Window     host.Window
	StatusFile string
	// Stability is how long the file must stay unchanged before it is read.
	Stability   time.Duration
	ServiceName string
	Logger      *observability.Logger
	Events      *logging.Logger
}

// Watcher shows a notification whenever the status value changes.
type Watcher struct {
	opts Options

	mu       sync.Mutex
	previous string
}

// NewWatcher builds a Watcher.
func NewWatcher(opts Options) *Watcher {
	if opts.Stability <= 0 {
		opts.Stability = config.DefaultStartupStability
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Watcher{opts: opts}
}

// Enabled reports whether the watcher runs in this environment.
func (w *Watcher) Enabled() bool {
	return w.opts.ServiceName == config.UnifiedStudioService
}

// Run watches until ctx is done. The parent directory is watched since the
// file may not exist yet and writers often replace it.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.Enabled() {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create status watcher: %w", err)
	}
	defer func() {
		_ = fw.Close()
	}()

	target := filepath.Clean(w.opts.StatusFile)
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	arm := func() {
		if timer == nil {
			timer = time.NewTimer(w.opts.Stability)
		} else {
			timer.Stop()
			timer.Reset(w.opts.Stability)
		}
		fire = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	if _, err := os.Stat(target); err == nil {
		arm()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			switch {
			case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
				arm()
			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				w.opts.Logger.Info("status file removed", slog.String("path", target))
				if timer != nil {
					timer.Stop()
				}
				fire = nil
			}
		case <-fire:
			fire = nil
			w.Process(ctx)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("status watcher error", slog.String("error", err.Error()))
		}
	}
}

// Process reads the status file and notifies the user if the status moved.
// It returns true when a notification was shown.
func (w *Watcher) Process(ctx context.Context) bool {
	raw, err := os.ReadFile(w.opts.StatusFile)
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			w.opts.Logger.OperationFailed("read startup status", err)
		}
		return false
	}
	var st Status
	if err := json.Unmarshal(raw, &st); err != nil {
		w.opts.Logger.OperationFailed("parse startup status", err)
		return false
	}

	w.mu.Lock()
	changed := st.Status != "" && st.Status != w.previous
	if changed {
		w.previous = st.Status
	}
	w.mu.Unlock()

	if !changed || st.Message == "" {
		return false
	}

	_ = w.opts.Events.Info(logging.CategoryStartup, "status_changed", st.Message, map[string]any{"status": st.Status})
	msg := host.Message{Text: st.Message}
	if strings.EqualFold(st.Status, "error") {
		_, err = w.opts.Window.ShowError(ctx, msg)
	} else {
		_, err = w.opts.Window.ShowInfo(ctx, msg)
	}
	if err != nil {
		w.opts.Logger.OperationFailed("show startup status", err)
	}
	return true
}
