//go:build unix

package termguard

import "golang.org/x/sys/unix"

// SignalKiller sends SIGKILL.
type SignalKiller struct{}

func (SignalKiller) Kill(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}
