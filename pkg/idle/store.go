// Package idle maintains the last-activity sentinel file read by the
// platform's idle shutdown logic.
package idle

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cerrors "github.com/odvcencio/codeeditor/pkg/errors"
	"github.com/odvcencio/codeeditor/pkg/paths"
)

// TimestampLayout matches JavaScript's Date.prototype.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Format renders t as a UTC ISO-8601 timestamp with millisecond precision.
func Format(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Store reads and writes a single-timestamp sentinel file. Writes always
// replace the whole file.
type Store struct {
	Path string

	mu sync.Mutex
}

// NewStore returns a store for path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// DefaultPath places fileName in HOME (or USERPROFILE). With neither set the
// file lands in the temp directory.
func DefaultPath(fileName string) string {
	home := paths.HomeDir()
	if home == "" {
		home = os.TempDir()
	}
	return filepath.Join(home, fileName)
}

// EnsureExists creates the sentinel with now when it is absent and reports
// whether it did so.
func (s *Store) EnsureExists(now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.Path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, cerrors.Wrap(err, cerrors.ErrCodeIdleIO, "stat idle file").WithContext("path", s.Path)
	}
	if err := s.write(now); err != nil {
		return false, err
	}
	return true, nil
}

// Read returns the raw sentinel contents.
func (s *Store) Read() (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", cerrors.Wrap(err, cerrors.ErrCodeIdleIO, "read idle file").WithContext("path", s.Path)
	}
	return string(data), nil
}

// ReadTime parses the sentinel as a timestamp.
func (s *Store) ReadTime() (time.Time, error) {
	raw, err := s.Read()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, cerrors.Wrap(err, cerrors.ErrCodeIdleIO, "parse idle timestamp").WithContext("value", raw)
	}
	return t, nil
}

// Touch overwrites the sentinel with now.
func (s *Store) Touch(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(now)
}

func (s *Store) write(now time.Time) error {
	if dir := filepath.Dir(s.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cerrors.Wrap(err, cerrors.ErrCodeIdleIO, "create idle directory").WithContext("path", dir)
		}
	}
	if err := os.WriteFile(s.Path, []byte(Format(now)), 0o644); err != nil {
		return cerrors.Wrap(err, cerrors.ErrCodeIdleIO, "write idle file").WithContext("path", s.Path)
	}
	return nil
}
