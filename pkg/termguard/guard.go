// Package termguard cleans up shell processes left behind when a terminal
// crashes immediately after opening.
package termguard

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/odvcencio/codeeditor/pkg/logging"
	"github.com/odvcencio/codeeditor/pkg/observability"
)

// CrashWindow is how soon after opening a close counts as a crash.
const CrashWindow = time.Second

// ProcessFinder lists the processes to clean up.
type ProcessFinder interface {
	BashPIDs() ([]int, error)
}

// Killer terminates a process.
type Killer interface {
	Kill(pid int) error
}

// Options configure a Guard.
type Options struct {
	Finder ProcessFinder
	Killer Killer
	Now    func() time.Time
	Logger *observability.Logger
	Events *logging.Logger
}

// Guard remembers the most recently opened terminal.
type Guard struct {
	finder ProcessFinder
	killer Killer
	now    func() time.Time
	logger *observability.Logger
	events *logging.Logger

	mu       sync.Mutex
	lastPID  int
	openedAt time.Time
}

// NewGuard builds a Guard backed by the process table unless overridden.
func NewGuard(opts Options) *Guard {
	if opts.Finder == nil {
		opts.Finder = ProcTable{}
	}
	if opts.Killer == nil {
		opts.Killer = SignalKiller{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Guard{
		finder: opts.Finder,
		killer: opts.Killer,
		now:    opts.Now,
		logger: opts.Logger,
		events: opts.Events,
	}
}

// Opened records a terminal opening.
func (g *Guard) Opened(pid int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lastPID = pid
	g.openedAt = g.now()
	g.logger.Debug("terminal opened", slog.Int("pid", pid))
}

// Closed handles a terminal closing while remaining terminals stay open. It
// returns the pids it killed.
func (g *Guard) Closed(pid, remaining int) ([]int, error) {
	g.mu.Lock()
	lastPID, openedAt := g.lastPID, g.openedAt
	g.mu.Unlock()

	if lastPID == 0 || openedAt.IsZero() || pid != lastPID {
		return nil, nil
	}
	elapsed := g.now().Sub(openedAt)
	if elapsed >= CrashWindow {
		return nil, nil
	}
	if remaining != 0 {
		g.logger.Info("other terminals still open, not killing shells", slog.Int("remaining", remaining))
		return nil, nil
	}

	g.logger.Warn("terminal closed right after opening, killing shells",
		slog.Int("pid", pid), slog.Duration("elapsed", elapsed))
	return g.killShells()
}

func (g *Guard) killShells() ([]int, error) {
	pids, err := g.finder.BashPIDs()
	if err != nil {
		g.logger.OperationFailed("list bash processes", err)
		return nil, err
	}

	var killed []int
	for _, pid := range pids {
		if err := g.killer.Kill(pid); err != nil {
			g.logger.Warn("kill failed", slog.Int("pid", pid), slog.String("error", err.Error()))
			continue
		}
		killed = append(killed, pid)
	}
	_ = g.events.Warn(logging.CategoryTerm, "shells_killed", "", map[string]any{"pids": killed})
	return killed, nil
}

// Event is one line of the terminal event stream.
type Event struct {
	Type      string `json:"event"`
	PID       int    `json:"pid"`
	Remaining int    `json:"remaining"`
}

// Watch consumes JSON line events from r until EOF or ctx is done.
func (g *Guard) Watch(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			g.logger.Warn("bad terminal event", slog.String("error", err.Error()))
			continue
		}
		switch ev.Type {
		case "open":
			g.Opened(ev.PID)
		case "close":
			if _, err := g.Closed(ev.PID, ev.Remaining); err != nil {
				return err
			}
		default:
			g.logger.Warn("unknown terminal event", slog.String("event", ev.Type))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read terminal events: %w", err)
	}
	return nil
}
