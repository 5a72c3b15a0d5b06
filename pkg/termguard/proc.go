package termguard

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ProcTable finds shells by reading the comm name of every process.
type ProcTable struct {
	// Root defaults to /proc.
	Root string
}

// BashPIDs returns pids whose command name contains "bash", excluding this
// process.
func (p ProcTable) BashPIDs() ([]int, error) {
	root := p.Root
	if root == "" {
		root = "/proc"
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	self := os.Getpid()
	var pids []int
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid == self {
			continue
		}
		comm, err := os.ReadFile(filepath.Join(root, e.Name(), "comm"))
		if err != nil {
			// exited since ReadDir
			continue
		}
		if strings.Contains(strings.TrimSpace(string(comm)), "bash") {
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)
	return pids, nil
}
