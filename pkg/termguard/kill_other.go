//go:build !unix

package termguard

import "os"

// SignalKiller terminates the process.
type SignalKiller struct{}

func (SignalKiller) Kill(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
